// Package i18n translates message keys into the user-facing strings shown
// by the front end. Chinese is the product's original language; English is
// the fallback for everyone else.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Message keys understood by the catalog.
const (
	KeyEmptyCustomPrompt = "empty_custom_prompt"
	KeyMissingCredential = "missing_credential"
	KeyInvalidKey        = "invalid_key"
	KeyAccessDenied      = "access_denied"
	KeyRateLimited       = "rate_limited"
	KeyServerError       = "server_error"
	KeyBadRequest        = "bad_request"
	KeyNetworkError      = "network_error"
	KeyEmptyResult       = "empty_result"
	KeyGenerationFailed  = "generation_failed"
)

var catalog = map[string]map[string]string{
	"zh": {
		KeyEmptyCustomPrompt: "请输入自定义风格描述",
		KeyMissingCredential: "API密钥未配置，请在配置中设置API密钥",
		KeyInvalidKey:        "API密钥无效，请检查您的密钥设置",
		KeyAccessDenied:      "API访问被拒绝，请检查您的权限或余额",
		KeyRateLimited:       "请求过于频繁，请稍后再试",
		KeyServerError:       "服务器内部错误，请稍后重试",
		KeyBadRequest:        "请求参数错误，请检查您的设置",
		KeyNetworkError:      "网络连接失败，请检查网络连接后重试",
		KeyEmptyResult:       "生成结果为空",
		KeyGenerationFailed:  "图片生成失败，请重试",
	},
	"en": {
		KeyEmptyCustomPrompt: "Please enter a custom style description",
		KeyMissingCredential: "No API key is configured. Add one in the settings",
		KeyInvalidKey:        "The API key is invalid. Check your key settings",
		KeyAccessDenied:      "API access was denied. Check your permissions or balance",
		KeyRateLimited:       "Too many requests. Please try again later",
		KeyServerError:       "The provider hit an internal error. Please try again later",
		KeyBadRequest:        "The request was rejected. Check your settings",
		KeyNetworkError:      "Network connection failed. Check your connection and retry",
		KeyEmptyResult:       "The provider returned an empty result",
		KeyGenerationFailed:  "Image generation failed. Please retry",
	},
}

// T returns the message for key in the given locale, falling back to
// English, then to the key itself for unknown keys.
func T(locale, key string) string {
	if messages, ok := catalog[NormalizeLocale(locale)]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog["en"][key]; ok {
		return msg
	}
	return key
}

// NormalizeLocale collapses locale variants onto the supported set.
func NormalizeLocale(locale string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "zh") {
		return "zh"
	}
	return "en"
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
})

// Negotiate picks a supported locale from an Accept-Language header.
// An empty or unparsable header yields English.
func Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, _ := matcher.Match(tags...)
	if idx == 1 {
		return "zh"
	}
	return "en"
}
