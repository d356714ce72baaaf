package api

import (
	"net/http"
)

// @Summary      Subscribe to live events
// @Description  Upgrades to a websocket that receives an event for every change to the caller's nodes. Browsers pass the access token in the token query parameter.
// @Tags         events
// @Param        token  query     string  false  "Access token, alternative to the Authorization header"
// @Success      101    {string}  string "Switching Protocols"
// @Failure      401    {string}  string "Unauthorized"
// @Router       /ws [get]
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "Live events are disabled", http.StatusNotImplemented)
		return
	}

	claims, err := s.verifier.FromHeader(r.Header.Get("Authorization"))
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err = s.verifier.FromToken(token)
	}
	if err != nil {
		s.logger.DebugContext(r.Context(), "websocket connection rejected", "error", err)
		s.writeError(w, r, err)
		return
	}

	if err := s.hub.Serve(w, r, claims.UserID); err != nil {
		// The upgrader has already replied to the client.
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
	}
}
