package cache

import (
	"github.com/gnana997/nextscope/pkg/parser"
)

// MinifyNormalizer hashes source files by their token stream, so edits to
// comments or formatting do not invalidate cached analyses. Files the parser
// does not support are hashed raw.
func MinifyNormalizer(pm *parser.ParserManager) NormalizeFunc {
	return func(key string, content []byte) ([]byte, error) {
		if !parser.IsSourceFile(key) {
			return content, nil
		}
		return pm.Minify(content, key)
	}
}
