package server

// Minimal built-in pages. Deployments that want branding put a reverse proxy
// or their own index.html in front; the share content itself is served
// directly from the static folder.
const pageTemplates = `
{{define "index"}}<!DOCTYPE html>
<html>
<head><title>Shared folders</title></head>
<body>
<h1>Shared folders</h1>
<p>Ask the person who shared a folder with you for its link and password.</p>
</body>
</html>{{end}}

{{define "login"}}<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
<h1>Folder access</h1>
{{if .Failed}}<p>Wrong folder or password.</p>{{end}}
<form method="post" action="/l">
  <label>Folder <input name="folder" value="{{.Folder}}"></label>
  <label>Password <input name="password" type="password"></label>
  <button type="submit">Unlock</button>
</form>
{{if .Sessions}}
<h2>Your sessions</h2>
<ul>
{{range .Sessions}}<li><a href="/s/{{.Folder}}/">{{.Folder}}</a>: {{.MinutesLeft}} min left (share: {{.Note}})</li>{{end}}
</ul>
<p><a href="/logout">Log out everywhere</a></p>
{{end}}
</body>
</html>{{end}}

{{define "ratelimit"}}<!DOCTYPE html>
<html>
<head><title>Slow down</title></head>
<body>
<h1>Too many attempts</h1>
<p>Wait a moment before trying again.</p>
</body>
</html>{{end}}
`
