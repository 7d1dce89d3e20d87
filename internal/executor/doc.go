/*
Package executor turns a Request plus an Environment into a single outbound
HTTP call and a normalized Response.

# Request Building

Before dispatch the executor:
  - substitutes {{name}} placeholders in the URL, enabled header values,
    the raw body and form field values (collection variables < environment)
  - applies collection auth (bearer, basic, apikey, oauth2 client credentials)
  - attaches only active headers (enabled, non-empty key and value); later
    duplicates replace earlier ones and override auth headers
  - attaches a body only for POST, PUT and PATCH

Body modes:
  - raw: the substituted text, verbatim
  - urlencoded: enabled fields, application/x-www-form-urlencoded
  - formdata: enabled fields, multipart/form-data with a generated boundary

A Content-Type implied by the body mode is only set when the request does not
carry one.

# Responses

Response bodies that parse as JSON are re-indented with two spaces; anything
else is kept as received. Size is the byte length of the raw body, Duration
covers dispatch through the last body byte, and multi-value headers are joined
with ", ".

# Error Handling

Transport failures (DNS, refused connections, timeouts, cancellation, bad
URLs, empty URLs, token fetch errors) become a Response with status 0 and
status text "Network Error", the error message as body. Execute never returns
an error and every call, failed or not, is handed to the Recorder.

# Example Usage

	log := history.NewLog()
	exec := executor.New(executor.WithRecorder(log), executor.WithTimeout(10*time.Second))

	resp := exec.Execute(ctx, types.Request{
		Method: types.MethodPost,
		URL:    "{{base}}/users",
		Headers: []types.Header{
			{Key: "Content-Type", Value: "application/json", Enabled: true},
		},
		Body: &types.Body{Mode: types.BodyRaw, Raw: `{"name": "Ada"}`},
	}, types.Environment{"base": "https://api.example.com"})

	fmt.Println(resp.Status, resp.Body)

# Thread Safety

Execute and ExecuteIn are safe to call concurrently. Calls are independent and
nothing is serialized or cancelled on behalf of the caller.
*/
package executor
