package ignitesdk

// ============================================================================
// Session Types
// ============================================================================

// User is the profile of the signed in user as returned by the API.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"` // file name served under /avatar/
}

// IsZero reports whether u is the empty sentinel used when nobody is signed in.
func (u User) IsZero() bool { return u.ID == "" }

// TokenPair is the bearer credential and the refresh token it was issued with.
// The two halves are always stored and read together.
type TokenPair struct {
	// Token is the short lived access token sent as "Authorization: Bearer <token>"
	Token string `json:"token"`

	// RefreshToken is exchanged at /sessions/refresh-token for a new pair
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both halves of the pair are present.
func (p TokenPair) Complete() bool { return p.Token != "" && p.RefreshToken != "" }

// SignInRequest is the body of POST /sessions.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is returned from POST /sessions. Any field may be missing on a
// misbehaving server, callers must check before creating a session.
type SignInResponse struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Pair returns the credential pair carried by the response.
func (r SignInResponse) Pair() TokenPair {
	return TokenPair{Token: r.Token, RefreshToken: r.RefreshToken}
}

// RefreshRequest is the body of POST /sessions/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ============================================================================
// User Types
// ============================================================================

// SignUpRequest is the body of POST /users.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the body of PUT /users. Password and OldPassword are
// only sent when the user changes their password.
type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Password    string `json:"password,omitempty"`
	OldPassword string `json:"old_password,omitempty"`
}

// ============================================================================
// Exercise Types
// ============================================================================

// Exercise is a single exercise within a muscle group.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Series      int    `json:"series"`
	Repetitions string `json:"repetitions"`
	Demo        string `json:"demo"`  // gif served under /exercise/demo/
	Thumb       string `json:"thumb"` // image served under /exercise/thumb/
	UpdatedAt   string `json:"updated_at"`
}

// ============================================================================
// History Types
// ============================================================================

// HistoryEntry is one completed exercise.
type HistoryEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Group     string `json:"group"`
	Hour      string `json:"hour"`
	CreatedAt string `json:"created_at"`
}

// HistoryDay groups the entries completed on the same day.
type HistoryDay struct {
	Title string         `json:"title"` // e.g. "26.08.23"
	Data  []HistoryEntry `json:"data"`
}

// RegisterHistoryRequest is the body of POST /history.
type RegisterHistoryRequest struct {
	ExerciseID string `json:"exercise_id"`
}
