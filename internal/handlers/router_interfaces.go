package handlers

import "net/http"

// UserHandlerInterface is what the router needs for account routes
type UserHandlerInterface interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	ChangeUserPassword(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

// CredentialsHandlerInterface is what the router needs for credential and secret routes
type CredentialsHandlerInterface interface {
	GetCredentials(w http.ResponseWriter, r *http.Request)
	SaveGoogleCredentials(w http.ResponseWriter, r *http.Request)
	SaveAsanaCredentials(w http.ResponseWriter, r *http.Request)
	DeleteCredentials(w http.ResponseWriter, r *http.Request)
	ListSecrets(w http.ResponseWriter, r *http.Request)
}
