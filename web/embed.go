package web

import _ "embed"

// AdminPage holds the admin panel HTML served at /admin.
//
//go:embed admin.html
var AdminPage []byte
