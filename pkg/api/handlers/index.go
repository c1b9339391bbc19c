package handlers

import "net/http"

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>kerbgate</title></head>
<body>
<h2>Kerberos Authentication</h2>
<p>This server demonstrates hybrid Kerberos (Negotiate) + cookie session authentication.</p>
<h3>Endpoints:</h3>
<ul>
    <li><a href="/public">/public</a> - No authentication required</li>
    <li><a href="/login">/login</a> - Authenticate with Kerberos and create session cookie</li>
    <li><a href="/secure">/secure</a> - Requires authentication (returns 403 if not authenticated)</li>
    <li><a href="/auth-status">/auth-status</a> - Check current authentication status</li>
    <li><a href="/logout">/logout</a> - Clear session cookie</li>
</ul>
<h3>Flow:</h3>
<ol>
    <li>Visit <a href="/login">/login</a> first to authenticate with Kerberos</li>
    <li>Once authenticated, a session cookie is created</li>
    <li>Subsequent requests to <a href="/secure">/secure</a> use the cookie (no Kerberos challenge)</li>
    <li>Accessing <a href="/secure">/secure</a> without authentication returns 403 Forbidden</li>
    <li>Use <a href="/logout">/logout</a> to end the session</li>
</ol>
</body>
</html>
`

// Index handles GET / with a short help page.
func Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}
