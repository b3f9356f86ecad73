// Package logging provides file-based logging with rotation for docrag.
// Every command writes logs to ~/.docrag/logs/server.log (rotating) and to
// stderr at info level; the --debug flag lowers the level to debug.
package logging
