package command

const (
	DefaultListenAddr = "127.0.0.1:8090"
	DefaultLogLevel   = "INFO"
)

const (
	LogLevelFlag          = "log-level"
	ListenAddrFlag        = "listen"
	CORSOriginFlag        = "access-control-allow-origins"
	EnableWSFlag          = "enable-ws"
	PrometheusAddressFlag = "prometheus"
)
