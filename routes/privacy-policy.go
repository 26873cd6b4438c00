package routes

import (
	"fmt"
	"net/http"
)

// PrivacyPolicyHandler serves the Privacy Policy content
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	html := `
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title>FlameMatch Privacy Policy</title>
	</head>
	<body>
		<h1>Privacy Policy</h1>
		<p>FlameMatch stores your profile, photos, approximate location, likes, matches and messages to run the service.</p>
		<p>Your exact coordinates are never shown to other users; they only see a rounded distance.</p>
		<p>Selfies uploaded for verification are compared with your profile photo and used for nothing else.</p>
	</body>
	</html>
	`
	fmt.Fprint(w, html)
}
