package appfs

import "embed"

// FS holds the files the binaries need at runtime: SQL migrations, email templates & the common passwords list.
//
//go:embed migrations/*.sql templates/email/* common-passwords.txt.gz
var FS embed.FS
