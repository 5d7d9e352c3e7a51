package server

import (
	"net"

	"github.com/toncell-lab/emubridge/command"
)

var params = &serverParams{}

type serverParams struct {
	logLevel           string
	rawListenAddr      string
	rawPrometheusAddr  string
	corsAllowedOrigins []string
	enableWS           bool

	listenAddr     *net.TCPAddr
	prometheusAddr *net.TCPAddr
}

func (p *serverParams) initRawParams() error {
	addr, err := net.ResolveTCPAddr("tcp", p.rawListenAddr)
	if err != nil {
		return err
	}

	p.listenAddr = addr

	if p.rawPrometheusAddr != "" {
		addr, err := net.ResolveTCPAddr("tcp", p.rawPrometheusAddr)
		if err != nil {
			return err
		}

		p.prometheusAddr = addr
	}

	return nil
}

func defaultParams() *serverParams {
	return &serverParams{
		logLevel:      command.DefaultLogLevel,
		rawListenAddr: command.DefaultListenAddr,
	}
}
