package handler

import (
	"html/template"
	"log"
	"net/http"

	"msgboard/internal/api/middleware"
	"msgboard/internal/common"
	"msgboard/internal/common/security"
)

var homePageTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>Message Board</title></head>
<body>
<h1>Message Board</h1>
{{if .Username}}
<p>Logged in as <strong>{{.Username}}</strong></p>
<form method="POST" action="/logout"><button type="submit">Log out</button></form>
<form method="POST" action="/messages">
  <input type="hidden" name="_csrf" value="{{.CSRFToken}}">
  <textarea name="message" rows="3" cols="40"></textarea>
  <button type="submit">Post</button>
</form>
{{else}}
<form method="POST" action="/login">
  <input name="username" placeholder="username">
  <input name="password" type="password" placeholder="password">
  <button type="submit">Log in</button>
</form>
<form method="POST" action="/signup">
  <input name="username" placeholder="username">
  <input name="password" type="password" placeholder="password">
  <button type="submit">Sign up</button>
</form>
{{end}}
<ul>
{{range .Messages}}
  <li>
    <strong>{{.Username}}</strong>: {{.Value}}
    {{if eq .Username $.Username}}
    <form method="POST" action="/messages/delete">
      <input type="hidden" name="_csrf" value="{{$.CSRFToken}}">
      <input type="hidden" name="key" value="{{.Key}}">
      <button type="submit">Delete</button>
    </form>
    {{end}}
  </li>
{{end}}
</ul>
</body>
</html>
`))

type homeMessage struct {
	Username string
	Key      string
	Value    template.HTML // escaped at post time
}

type homePageData struct {
	Username  string
	CSRFToken string
	Messages  []homeMessage
}

// home renders the board with the current username (if any) and a CSRF
// token bound to the session for the post and delete forms.
func (h *BoardHandler) home(w http.ResponseWriter, r *http.Request) {
	messages, err := h.boardService.List(r.Context())
	if err != nil {
		log.Printf("home page failed: %v", err)
		common.RespondWithText(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := homePageData{}
	if user, ok := middleware.GetCurrentUserFromContext(r.Context()); ok {
		data.Username = user.Username
		if sessionID, ok := middleware.GetSessionIDFromContext(r.Context()); ok {
			token, err := security.GenerateCSRFToken(sessionID)
			if err != nil {
				log.Printf("csrf token generation failed: %v", err)
				common.RespondWithText(w, http.StatusInternalServerError, "internal error")
				return
			}
			data.CSRFToken = token
		}
	}

	for _, m := range messages {
		data.Messages = append(data.Messages, homeMessage{
			Username: m.Username,
			Key:      m.Key,
			Value:    template.HTML(m.Value),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homePageTemplate.Execute(w, data); err != nil {
		log.Printf("home template render failed: %v", err)
	}
}
