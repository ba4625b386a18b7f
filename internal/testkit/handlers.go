package testkit

import (
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/aussiebroadwan/ignite/pkg/httpx"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/go-chi/chi/v5"
)

var exercises = []ignitesdk.Exercise{
	{ID: "1", Name: "Supino inclinado com barra", Group: "chest", Series: 4, Repetitions: "12", Demo: "supino.gif", Thumb: "supino.png"},
	{ID: "2", Name: "Crucifixo reto", Group: "chest", Series: 3, Repetitions: "12", Demo: "crucifixo.gif", Thumb: "crucifixo.png"},
	{ID: "3", Name: "Remada curvada", Group: "back", Series: 3, Repetitions: "12", Demo: "remada.gif", Thumb: "remada.png"},
	{ID: "4", Name: "Agachamento", Group: "legs", Series: 4, Repetitions: "10", Demo: "agachamento.gif", Thumb: "agachamento.png"},
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req ignitesdk.SignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.accounts[req.Email]
	if !ok || cryptox.VerifyPassword(req.Password, acc.passwordHash) != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "E-mail e/ou senha incorreta.")
		return
	}

	pair, err := a.issue(acc.user.ID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if a.incomplete {
		pair.RefreshToken = ""
	}

	user := acc.user
	httpx.WriteJSON(w, http.StatusOK, ignitesdk.SignInResponse{
		User:         &user,
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.refreshCalls++
	gate := a.gate
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var req ignitesdk.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.refreshFail != nil {
		httpx.WriteError(w, a.refreshFail.status, a.refreshFail.message)
		return
	}

	userID, ok := a.refreshTokens[req.RefreshToken]
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "token.invalid")
		return
	}
	// Refresh tokens are single use
	delete(a.refreshTokens, req.RefreshToken)

	pair, err := a.issue(userID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req ignitesdk.SignUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Informe nome, e-mail e senha.")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[req.Email]; exists {
		httpx.WriteError(w, http.StatusBadRequest, "Este e-mail já está em uso.")
		return
	}
	a.addAccount(req.Name, req.Email, req.Password)

	w.WriteHeader(http.StatusCreated)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ignitesdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	acc := a.userByID(httpx.UserID(r.Context()))
	if acc == nil {
		httpx.WriteError(w, http.StatusNotFound, "Usuário não encontrado.")
		return
	}

	if req.Password != "" {
		if cryptox.VerifyPassword(req.OldPassword, acc.passwordHash) != nil {
			httpx.WriteError(w, http.StatusBadRequest, "A senha antiga não confere.")
			return
		}
		hash, err := passwords.Hash(req.Password)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		acc.passwordHash = hash
	}
	acc.user.Name = req.Name

	w.WriteHeader(http.StatusOK)
}

func (a *API) handleAvatar(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Envie uma imagem.")
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	a.mu.Lock()
	defer a.mu.Unlock()

	acc := a.userByID(httpx.UserID(r.Context()))
	if acc == nil {
		httpx.WriteError(w, http.StatusNotFound, "Usuário não encontrado.")
		return
	}
	acc.user.Avatar = acc.user.ID + "-" + header.Filename

	httpx.WriteJSON(w, http.StatusOK, acc.user)
}

func (a *API) handleGroups(w http.ResponseWriter, _ *http.Request) {
	seen := map[string]bool{}
	groups := []string{}
	for _, e := range exercises {
		if !seen[e.Group] {
			seen[e.Group] = true
			groups = append(groups, e.Group)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, groups)
}

func (a *API) handleExercisesByGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")

	out := []ignitesdk.Exercise{}
	for _, e := range exercises {
		if e.Group == group {
			out = append(out, e)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, e := range exercises {
		if e.ID == id {
			httpx.WriteJSON(w, http.StatusOK, e)
			return
		}
	}
	httpx.WriteError(w, http.StatusNotFound, "Exercício não encontrado.")
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	days := a.history[httpx.UserID(r.Context())]
	if days == nil {
		days = []ignitesdk.HistoryDay{}
	}
	httpx.WriteJSON(w, http.StatusOK, days)
}

func (a *API) handleRegisterHistory(w http.ResponseWriter, r *http.Request) {
	var req ignitesdk.RegisterHistoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var exercise *ignitesdk.Exercise
	for i := range exercises {
		if exercises[i].ID == req.ExerciseID {
			exercise = &exercises[i]
		}
	}
	if exercise == nil {
		httpx.WriteError(w, http.StatusNotFound, "Exercício não encontrado.")
		return
	}

	now := time.Now().UTC()
	title := now.Format("02.01.06")
	entry := ignitesdk.HistoryEntry{
		ID:        now.Format(time.RFC3339Nano),
		Name:      exercise.Name,
		Group:     exercise.Group,
		Hour:      now.Format("15:04"),
		CreatedAt: now.Format(time.RFC3339),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	userID := httpx.UserID(r.Context())
	days := a.history[userID]
	if len(days) > 0 && days[0].Title == title {
		days[0].Data = append([]ignitesdk.HistoryEntry{entry}, days[0].Data...)
	} else {
		days = append([]ignitesdk.HistoryDay{{Title: title, Data: []ignitesdk.HistoryEntry{entry}}}, days...)
	}
	a.history[userID] = days

	w.WriteHeader(http.StatusCreated)
}
