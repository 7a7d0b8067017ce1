// See config.go for the Config type and the recognized option table
// (§6). This package intentionally holds no planning or execution
// logic: it is pure configuration, threaded explicitly by callers
// rather than read from process-global state.
package config
