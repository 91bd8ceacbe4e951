package ocr

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// ErrUnsupportedLanguage 没有对应识别模型的语言
var ErrUnsupportedLanguage = errors.New("不支持的识别语言")

// Language 识别语言，Key 对应 PaddleOCR 的模型命名
type Language struct {
	Tag language.Tag
	Key string
}

func (l Language) String() string {
	return l.Tag.String()
}

var supported = []Language{
	{Tag: language.SimplifiedChinese, Key: "ch"},
	{Tag: language.English, Key: "en"},
	{Tag: language.Japanese, Key: "japan"},
	{Tag: language.Korean, Key: "korean"},
	{Tag: language.TraditionalChinese, Key: "chinese_cht"},
}

var matcher = language.NewMatcher(tags())

func tags() []language.Tag {
	out := make([]language.Tag, len(supported))
	for i, l := range supported {
		out[i] = l.Tag
	}
	return out
}

// ParseLanguage 解析 BCP-47 语言标签（如 zh-Hans、en-US），匹配到支持的识别语言
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, s, err)
	}

	// 匹配器会把无关语言回退到第一个高置信度候选，主语言必须一致
	_, idx, conf := matcher.Match(tag)
	if conf == language.No || !sameBase(tag, supported[idx].Tag) {
		return Language{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, tag)
	}
	return supported[idx], nil
}

func sameBase(a, b language.Tag) bool {
	ba, _ := a.Base()
	bb, _ := b.Base()
	return ba == bb
}

// AvailableLanguages 支持的语言标签
func AvailableLanguages() []string {
	out := make([]string, len(supported))
	for i, l := range supported {
		out[i] = l.Tag.String()
	}
	return out
}
