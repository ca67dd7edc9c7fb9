// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n localizes the texts of outgoing emails.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// Supported lists the languages with a translation file, default first.
var Supported = []language.Tag{language.English, language.German}

var (
	bundle   *i18n.Bundle
	initOnce sync.Once
	initErr  error
)

type localizerContextKey struct{}

// Init loads the embedded translations. It is safe to call repeatedly.
func Init() error {
	initOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		files, err := fs.Glob(translationFS, "translations/active.*.toml")
		if err != nil {
			initErr = err
			return
		}
		for _, file := range files {
			if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
				initErr = fmt.Errorf("loading %s: %w", file, err)
				return
			}
		}
		bundle = b
	})
	return initErr
}

// WithLocale adds a localizer for lang to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, localizerContextKey{}, i18n.NewLocalizer(bundle, lang.String()))
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return TData(ctx, messageID, nil)
}

// TData translates a message with template data. Unknown ids, and every id
// before Init, are returned unchanged.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	if bundle == nil {
		return messageID
	}
	msg, err := getLocalizer(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// MatchLanguage matches the best language from Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	matcher := language.NewMatcher(Supported)
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	return language.Make(base.String())
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(bundle, language.English.String())
}
