package registry

import (
	"github.com/zenocode/zenocode/pkg/providers/anthropic"
	"github.com/zenocode/zenocode/pkg/providers/echo"
	"github.com/zenocode/zenocode/pkg/providers/ollama"
	"github.com/zenocode/zenocode/pkg/providers/openai"
)

// RegisterBuiltins registers the bundled backends on r. HTTP backends share
// r's logger. Calling it again replaces the factories with fresh ones.
func RegisterBuiltins(r *Registry) {
	r.Register(openai.NewFactory(openai.WithLogger(r.logger)))
	r.Register(anthropic.NewFactory(anthropic.WithLogger(r.logger)))
	r.Register(ollama.NewFactory(ollama.WithLogger(r.logger)))
	r.Register(echo.NewFactory())
}
