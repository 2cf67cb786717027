/*
Package licsdk provides a client SDK for the license service HTTP API.

The Client type wraps every endpoint with a typed method:

	client := licsdk.NewClient("https://licenses.example.com")

	id, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    "2026-01-01",
		ValidTo:      "2026-12-31",
		Features:     []string{"Core", "Reports"},
	})

	result, err := client.ValidateLicense(ctx, id)

Errors from the service come back as *APIError carrying the HTTP status
code and the machine-readable error code from the response body.

Dates on the wire are plain "YYYY-MM-DD" strings; license validity is
date-granular throughout.
*/
package licsdk
