// Package cli implements the interactive terminal front-end of the vault.
//
// Each screen of the application is a REPL command: register and login,
// the browsable and searchable entry list, entry detail, create, edit and
// delete, the profile, settings and cloud backup. Errors are printed as
// messages and never end the session.
package cli
