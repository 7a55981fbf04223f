package ports

// serviceNames maps well-known ports to their conventional service names,
// used when a native connect scan cannot do version detection.
var serviceNames = map[int]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "domain",
	80:    "http",
	110:   "pop3",
	111:   "rpcbind",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	443:   "https",
	445:   "microsoft-ds",
	465:   "smtps",
	587:   "submission",
	631:   "ipp",
	993:   "imaps",
	995:   "pop3s",
	1433:  "ms-sql-s",
	1723:  "pptp",
	2049:  "nfs",
	3000:  "ppp",
	3128:  "squid-http",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	5060:  "sip",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	8000:  "http-alt",
	8080:  "http-proxy",
	8443:  "https-alt",
	8888:  "sun-answerbook",
	9200:  "wap-wsp",
	9443:  "tungsten-https",
	10000: "snet-sensor-mgmt",
	27017: "mongod",
}

// ServiceName returns the conventional service name for a port, or
// "unknown" when none is recorded.
func ServiceName(port int) string {
	if name, ok := serviceNames[port]; ok {
		return name
	}
	return "unknown"
}
