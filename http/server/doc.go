// Package server implements the bundler's HTTP API.
/*
server implements handlers for bundle generation, transfer, export, diagram
editing and description drafting, using the [net/http] package.

Run a Server

A server requires the wired components and basic auth credentials.

A server is listening on "127.0.0.1:8080".
The TCP bind address as well as various timeouts can be configured by customizing the configuration.

	server, err := server.New(services, func(o *server.Options) {
		o.BasicAuthUsername = username
		o.BasicAuthPassword = password
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	server.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()
*/
package server
