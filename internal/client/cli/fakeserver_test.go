package cli

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/golang-jwt/jwt/v5"
)

const devOTP = "123456"

// fakeServer is an in-memory AudioScribe API good enough for the CLI.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	tokenTTL    time.Duration
	users       map[string]apiclient.User
	access      map[string]int64
	refresh     map[string]int64
	files       map[int64]*apiclient.AudioFile
	blobs       map[int64][]byte
	nextID      int64
	transcripts []apiclient.Transcription
	analyses    []apiclient.SentimentAnalysis

	lastRegister apiclient.RegisterRequest
	registers    int
	refreshes    int
	signOuts     int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	s := &fakeServer{
		t:        t,
		tokenTTL: time.Hour,
		users:    make(map[string]apiclient.User),
		access:   make(map[string]int64),
		refresh:  make(map[string]int64),
		files:    make(map[int64]*apiclient.AudioFile),
		blobs:    make(map[int64][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("POST /register/createUser", s.handleRegister)
	mux.HandleFunc("POST /login/send-otp", s.handleSendOTP)
	mux.HandleFunc("POST /login/verify-otp", s.handleVerifyOTP)
	mux.HandleFunc("GET /login/check-session", s.handleCheckSession)
	mux.HandleFunc("POST /login/refresh", s.handleRefresh)
	mux.HandleFunc("POST /login/sign-out", s.handleSignOut)
	mux.HandleFunc("GET /uploadedFiles/getFiles", s.authed(s.handleListFiles))
	mux.HandleFunc("GET /uploadedFiles/getStatus", s.authed(func(w http.ResponseWriter, r *http.Request, _ int64) {
		writeJSON(w, http.StatusOK, []apiclient.Status{{ID: 1, Name: "Uploaded"}, {ID: 3, Name: "Transcribed"}})
	}))
	mux.HandleFunc("POST /uploadedFiles/upload", s.authed(s.handleUpload))
	mux.HandleFunc("GET /uploadedFiles/files/{id}", s.authed(s.handleGetFile))
	mux.HandleFunc("DELETE /uploadedFiles/files/{id}", s.authed(s.handleDeleteFile))
	mux.HandleFunc("GET /uploadedFiles/files/{id}/download", s.authed(func(w http.ResponseWriter, r *http.Request, _ int64) {
		if s.file(r) == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "File not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": s.srv.URL + "/blob/" + r.PathValue("id") + "?X-Amz-Signature=x"})
	}))
	mux.HandleFunc("GET /blob/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		b := s.blobs[id]
		s.mu.Unlock()
		_, _ = w.Write(b)
	})
	mux.HandleFunc("POST /transcribe/files/{id}", s.authed(s.handleTranscribeStored))
	mux.HandleFunc("POST /transcribe/transcription", s.authed(s.handleTranscribeUpload))
	mux.HandleFunc("GET /transcribe/transcriptions", s.authed(func(w http.ResponseWriter, r *http.Request, _ int64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.transcripts)
	}))
	mux.HandleFunc("POST /sentiment/start", s.authed(s.handleSentiment))
	mux.HandleFunc("GET /sentiment/results", s.authed(func(w http.ResponseWriter, r *http.Request, _ int64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.analyses)
	}))

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func randHex() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *fakeServer) addUser(email, first, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[email] = apiclient.User{ID: s.nextID, Email: email, FirstName: first, LastName: last}
}

func (s *fakeServer) setTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

// expireAccess drops every access token so the next call needs a refresh.
func (s *fakeServer) expireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]int64)
}

func (s *fakeServer) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]int64)
	s.refresh = make(map[string]int64)
}

func (s *fakeServer) registered() (apiclient.RegisterRequest, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRegister, s.registers
}

func (s *fakeServer) counts() (refreshes, signOuts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes, s.signOuts
}

// issueSession must be called with s.mu held.
func (s *fakeServer) issueSession(w http.ResponseWriter, user apiclient.User) string {
	access, refresh := randHex(), randHex()
	s.access[access] = user.ID
	s.refresh[refresh] = user.ID

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		s.t.Errorf("sign token: %v", err)
	}

	http.SetCookie(w, &http.Cookie{Name: "access-token", Value: access, Path: "/", HttpOnly: true, Secure: true})
	http.SetCookie(w, &http.Cookie{Name: "refresh-token", Value: refresh, Path: "/", HttpOnly: true, Secure: true})
	return token
}

func (s *fakeServer) userByID(id int64) apiclient.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return apiclient.User{}
}

func (s *fakeServer) authed(h func(w http.ResponseWriter, r *http.Request, userID int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("access-token")
		s.mu.Lock()
		userID, ok := int64(0), false
		if err == nil {
			userID, ok = s.access[ck.Value]
		}
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false, "message": "Session expired. Please login again.", "sessionExpired": true,
			})
			return
		}
		h(w, r, userID)
	}
}

func (s *fakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in apiclient.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers++
	s.lastRegister = in
	if _, ok := s.users[in.Email]; ok {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "User already exists"})
		return
	}
	s.nextID++
	s.users[in.Email] = apiclient.User{ID: s.nextID, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Registration successful", "user_id": s.nextID})
}

func (s *fakeServer) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email string }
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	_, ok := s.users[in.Email]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false, "message": "User not found. Please register first.", "userExists": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "OTP sent successfully to your email",
		"email": in.Email, "temp_token": "tmp", "userExists": true, "dev_otp": devOTP,
	})
}

func (s *fakeServer) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, OTP string }
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[in.Email]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "User not found with the provided email."})
		return
	}
	if in.OTP != devOTP {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid or expired OTP. Please request a new one."})
		return
	}
	token := s.issueSession(w, user)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "OTP verified successfully! Login complete.",
		"jwt_token": token, "token": token, "user": user,
	})
}

func (s *fakeServer) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	s.authed(func(w http.ResponseWriter, r *http.Request, userID int64) {
		s.mu.Lock()
		user := s.userByID(userID)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "message": "Session is active", "sessionExpired": false,
			"user":       map[string]any{"user_id": user.ID, "email": user.Email},
			"expires_at": time.Now().Add(time.Hour),
		})
	})(w, r)
}

func (s *fakeServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++

	ck, err := r.Cookie("refresh-token")
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Session expired. Please login again.", "sessionExpired": true})
		return
	}
	userID, ok := s.refresh[ck.Value]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Session expired. Please login again.", "sessionExpired": true})
		return
	}
	delete(s.refresh, ck.Value)
	token := s.issueSession(w, s.userByID(userID))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session refreshed", "jwt_token": token, "token": token})
}

func (s *fakeServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	if ck, err := r.Cookie("refresh-token"); err == nil {
		delete(s.refresh, ck.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: "access-token", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "refresh-token", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully."})
}

func (s *fakeServer) handleListFiles(w http.ResponseWriter, r *http.Request, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []apiclient.AudioFile{}
	for id := s.nextID; id > 0; id-- {
		if f, ok := s.files[id]; ok {
			out = append(out, *f)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *fakeServer) handleUpload(w http.ResponseWriter, r *http.Request, userID int64) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "No file uploaded"})
		return
	}
	durations := r.MultipartForm.Value["duration"]

	s.mu.Lock()
	defer s.mu.Unlock()
	var created []apiclient.AudioFile
	for i, fh := range r.MultipartForm.File["file"] {
		f, _ := fh.Open()
		body, _ := io.ReadAll(f)
		f.Close()

		s.nextID++
		name := strings.TrimSuffix(fh.Filename, ".mp3")
		af := &apiclient.AudioFile{
			ID: s.nextID, FileName: name, FileType: "MP3", SizeBytes: int64(len(body)),
			StatusID: 1, StatusName: "Uploaded", CreatedAt: time.Now(),
		}
		if i < len(durations) {
			af.Duration = durations[i]
		}
		s.files[af.ID] = af
		s.blobs[af.ID] = body
		created = append(created, *af)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "files": created})
}

func (s *fakeServer) file(r *http.Request) *apiclient.AudioFile {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[id]
}

func (s *fakeServer) handleGetFile(w http.ResponseWriter, r *http.Request, _ int64) {
	f := s.file(r)
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "File not found"})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *fakeServer) handleDeleteFile(w http.ResponseWriter, r *http.Request, _ int64) {
	f := s.file(r)
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "File not found"})
		return
	}
	s.mu.Lock()
	delete(s.files, f.ID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "File deleted"})
}

func (s *fakeServer) transcribe(w http.ResponseWriter, f *apiclient.AudioFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := "hello from " + f.FileName
	t := apiclient.Transcription{ID: int64(len(s.transcripts) + 1), FileID: f.ID, FileName: f.FileName, Text: text, CreatedAt: time.Now()}
	s.transcripts = append(s.transcripts, t)
	f.StatusID, f.StatusName = 3, "Transcribed"
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "transcription_id": t.ID, "file_id": f.ID,
		"data": map[string]any{"clean_transcript": text},
	})
}

func (s *fakeServer) handleTranscribeStored(w http.ResponseWriter, r *http.Request, _ int64) {
	f := s.file(r)
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "File not found"})
		return
	}
	s.transcribe(w, f)
}

func (s *fakeServer) handleTranscribeUpload(w http.ResponseWriter, r *http.Request, _ int64) {
	_, fh, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "No file uploaded"})
		return
	}
	s.mu.Lock()
	s.nextID++
	f := &apiclient.AudioFile{ID: s.nextID, FileName: strings.TrimSuffix(fh.Filename, ".mp3"), FileType: "MP3"}
	s.files[f.ID] = f
	s.mu.Unlock()
	s.transcribe(w, f)
}

func (s *fakeServer) handleSentiment(w http.ResponseWriter, r *http.Request, _ int64) {
	var in apiclient.SentimentRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]apiclient.SentimentResult, 0, len(in.FileIDs))
	ok := 0
	for _, id := range in.FileIDs {
		f, found := s.files[id]
		if !found || f.StatusID != 3 {
			results = append(results, apiclient.SentimentResult{FileID: id, Error: "File is not transcribed yet"})
			continue
		}
		a := apiclient.SentimentAnalysis{
			ID: int64(len(s.analyses) + 1), FileID: id, FileName: f.FileName,
			StudentName: in.StudentName, ParentName: in.ParentName, GradeName: in.GradeName,
			CategoryID: 1, CategoryName: "Positive", CreatedAt: time.Now(),
		}
		s.analyses = append(s.analyses, a)
		results = append(results, apiclient.SentimentResult{FileID: id, Analysis: &a})
		ok++
	}
	status := http.StatusOK
	if ok == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{"success": ok > 0, "results": results})
}
