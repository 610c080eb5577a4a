// Package client is used to interact with a bundler server via HTTP.
/*
client provides a typed API over the server's operations.

Create a Client

A client requires the base URL of a HTTP server and an authorization string,
using basic authentication.

	client, err := client.New("http://localhost:8080", "Basic dGVzdHVzZXJuYW1lOnRlc3RwYXNzd29yZA==")
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	defer client.Shutdown()
*/
package client
