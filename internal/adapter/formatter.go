package adapter

import (
	"fmt"
	"strings"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/util"
)

// ResponseFormatter renders conversation directives as chat replies.
type ResponseFormatter struct{}

// NewResponseFormatter creates a new ResponseFormatter
func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

// FormatDirective renders the machine's next-step directive.
func (f *ResponseFormatter) FormatDirective(d *domain.Directive) string {
	if d == nil {
		return f.FormatError()
	}

	switch d.Kind {
	case domain.DirectiveAskResort:
		return f.formatAskResort(d)
	case domain.DirectiveAskDate:
		return f.formatAskDate(d)
	case domain.DirectiveConfirm:
		return f.formatConfirm(d)
	case domain.DirectiveCreateTrip:
		return f.formatCreated(d)
	default:
		return f.FormatError()
	}
}

func (f *ResponseFormatter) formatAskResort(d *domain.Directive) string {
	if len(d.Candidates) == 0 {
		return "⛷️ 請問想去哪個雪場?例如:二世谷、白馬八方尾根、留壽都"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏔️ 找到 %d 個相關雪場,請選一個:\n", len(d.Candidates)))
	for i, c := range d.Candidates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, util.TruncateString(c.Name, 40)))
	}
	sb.WriteString("回覆雪場名稱即可")
	return sb.String()
}

func (f *ResponseFormatter) formatAskDate(d *domain.Directive) string {
	if d.NeedEndDate {
		return "📅 請問到哪一天回來?例如:12月20日"
	}
	return "📅 請問什麼時候出發?例如:12月15日到20日"
}

func (f *ResponseFormatter) formatConfirm(d *domain.Directive) string {
	var sb strings.Builder
	sb.WriteString("✅ 行程確認\n\n")
	if d.Resort != nil {
		sb.WriteString(fmt.Sprintf("⛷️ 雪場:%s\n", d.Resort.Name))
	}
	if d.Dates != nil {
		sb.WriteString(fmt.Sprintf("📅 日期:%s ~ %s(%d 天)\n",
			util.FormatDate(d.Dates.Start),
			util.FormatDate(d.Dates.End),
			d.Dates.DurationDays,
		))
	}
	sb.WriteString("\n回覆「確認」建立行程")
	return sb.String()
}

func (f *ResponseFormatter) formatCreated(d *domain.Directive) string {
	var sb strings.Builder
	sb.WriteString("🎿 行程已建立!\n\n")
	if d.Resort != nil {
		sb.WriteString(fmt.Sprintf("⛷️ %s\n", d.Resort.Name))
	}
	if d.Dates != nil {
		sb.WriteString(fmt.Sprintf("📅 %s ~ %s\n",
			util.FormatDate(d.Dates.Start),
			util.FormatDate(d.Dates.End),
		))
	}
	sb.WriteString("\n祝滑雪愉快!")
	return sb.String()
}

// FormatError is the generic failure reply.
func (f *ResponseFormatter) FormatError() string {
	return "❌ 處理訊息時發生錯誤,請稍後再試"
}
