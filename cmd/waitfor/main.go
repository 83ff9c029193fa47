package main

import (
	"flag"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

func main() {
	// define flags for host and port
	host := flag.String("host", "localhost", "the host to connect to")
	port := flag.String("port", "27017", "the port to connect to")
	addrs := flag.String("addrs", "", "comma-separated host:port list, overrides -host and -port")
	attempts := flag.Int("attempts", 20, "maximum connection attempts per address")
	timeout := 10 * time.Second

	// parse the flags
	flag.Parse()

	targets := []string{net.JoinHostPort(*host, *port)}
	if *addrs != "" {
		targets = strings.Split(*addrs, ",")
	}
	for _, target := range targets {
		waitFor(strings.TrimSpace(target), *attempts, timeout)
	}
}

func waitFor(addr string, attempts int, timeout time.Duration) {
	for i := 1; i <= attempts; i++ {
		// try to connect to the server
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			// connection successful, close it and exit the loop
			_ = conn.Close()
			log.WithField("addr", addr).Info("TCP connection available")
			return
		}

		// connection unsuccessful, log error and retry after a short delay
		log.WithError(err).WithField("addr", addr).WithField("attempt", i).Info("connection not yet available")
		time.Sleep(1 * time.Second)
	}
	log.WithField("addr", addr).Fatal("could not open TCP connection after max attempts")
}
