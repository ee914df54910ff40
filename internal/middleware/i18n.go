// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
)

// I18nMiddleware stores the caller's language in the context under "lang".
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return func(c *gin.Context) {
		c.Set("lang", negotiateLanguage(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

// languageAliases maps browser tags onto bundled locale names.
var languageAliases = map[string]string{
	"zh":      "zh_TW",
	"zh-tw":   "zh_TW",
	"zh-hant": "zh_TW",
	"zh-hk":   "zh_TW",
	"en-us":   "en",
	"en-gb":   "en",
}

// negotiateLanguage picks the first bundled language of an
// Accept-Language header such as "zh-TW,zh;q=0.9,en;q=0.8".
func negotiateLanguage(header, fallback string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" {
			continue
		}
		lang := strings.ToLower(strings.ReplaceAll(tag, "_", "-"))
		if alias, ok := languageAliases[lang]; ok {
			lang = alias
		}
		if i18n.IsSupported(lang) {
			return lang
		}
	}
	return fallback
}
