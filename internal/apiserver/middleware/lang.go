package middleware

import (
	"strings"

	"github.com/amoylab/ragtrack/internal/common/cnst"
	"github.com/gin-gonic/gin"
)

// LanguageMiddleware resolves the caller's language preference and stores it
// under cnst.XLang for the i18n layer. The X-Lang header wins over
// Accept-Language; unknown languages fall back to English.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader(cnst.XLang)
		if lang == "" {
			accept := c.GetHeader("Accept-Language")
			if accept != "" {
				lang = strings.TrimSpace(strings.Split(strings.Split(accept, ",")[0], ";")[0])
			}
		}

		lang = strings.ToLower(strings.Split(lang, "-")[0])
		switch lang {
		case cnst.LangEN, cnst.LangNL:
		default:
			lang = cnst.LangEN
		}

		c.Set(cnst.XLang, lang)
		c.Next()
	}
}
