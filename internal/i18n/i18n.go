// Package i18n 提供接口返回信息的多语言支持，翻译文件内嵌在 locales 目录中
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

type Messages struct {
	bundle        *i18n.Bundle
	tags          []language.Tag
	matcher       language.Matcher
	defaultLocale string
}

// New 加载所有翻译文件，defaultLocale 必须是其中之一
func New(defaultLocale string) (*Messages, error) {
	defaultTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("无效的默认语言 %q: %w", defaultLocale, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("读取翻译目录失败: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("读取翻译文件 %s 失败: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("解析翻译文件 %s 失败: %w", e.Name(), err)
		}
	}

	// 默认语言放在第一位，匹配失败时 matcher 会回退到它
	tags := []language.Tag{defaultTag}
	found := false
	for _, tag := range bundle.LanguageTags() {
		if tag == defaultTag {
			found = true
			continue
		}
		tags = append(tags, tag)
	}
	if !found {
		return nil, fmt.Errorf("缺少默认语言 %q 的翻译文件", defaultLocale)
	}

	return &Messages{
		bundle:        bundle,
		tags:          tags,
		matcher:       language.NewMatcher(tags),
		defaultLocale: defaultTag.String(),
	}, nil
}

// Match 根据 Accept-Language 选出支持的语言
func (m *Messages) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return m.defaultLocale
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return m.defaultLocale
	}

	_, idx, confidence := m.matcher.Match(tags...)
	if confidence == language.No {
		return m.defaultLocale
	}

	return m.tags[idx].String()
}

func (m *Messages) DefaultLocale() string {
	return m.defaultLocale
}

func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext 返回 context 中的语言，未设置时返回空字符串
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// T 按 context 中的语言翻译 messageID，找不到翻译时原样返回 messageID
func (m *Messages) T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	locale := LocaleFromContext(ctx)
	if locale == "" {
		locale = m.defaultLocale
	}

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := i18n.NewLocalizer(m.bundle, locale).Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
