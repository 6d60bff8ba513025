package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/util"
	"go.uber.org/zap"
)

// Extractor scans free text for date expressions. Each supported grammar is
// one parser func; all families are attempted and the most complete result
// wins (a full range beats a lone start date). The clock is injected so
// year inference is testable.
type Extractor struct {
	now    func() time.Time
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return NewWithClock(logger, util.NowTaipei)
}

func NewWithClock(logger *zap.Logger, now func() time.Time) *Extractor {
	return &Extractor{now: now, logger: logger}
}

type parserFunc func(e *Extractor, text string, today time.Time) *domain.DateExtraction

// Family order matters: more explicit grammars first, so a two-month range
// is never half-eaten by the shared-month family.
var families = []parserFunc{
	(*Extractor).parseFullDateRange,
	(*Extractor).parseTwoMonthDayRange,
	(*Extractor).parseEnglishMonthRange,
	(*Extractor).parseSharedMonthDayRange,
	(*Extractor).parseFullDate,
	(*Extractor).parseMonthDay,
	(*Extractor).parseRelative,
}

// Extract returns the best date reading of the text: a validated range, a
// partial start (so the caller can ask only for the end date), or empty.
// Unparseable text is a normal empty result, never an error.
func (e *Extractor) Extract(text string) *domain.DateExtraction {
	normalized := util.Normalize(text)
	if normalized == "" {
		return domain.EmptyExtraction()
	}

	today := util.DateOnly(e.now())

	var partial *domain.DateExtraction
	for _, family := range families {
		result := family(e, normalized, today)
		if result == nil {
			continue
		}
		if result.Kind == domain.ExtractionRange {
			return result
		}
		if partial == nil && result.Kind == domain.ExtractionPartial {
			partial = result
		}
	}

	if partial != nil {
		return partial
	}
	return domain.EmptyExtraction()
}

const rangeSep = `(?:[-~〜–—]|到|至|to|until)`

var (
	fullDatePattern = `(\d{4})[-/年](\d{1,2})[-/月](\d{1,2})日?`

	fullDateRangeRe = regexp.MustCompile(fullDatePattern + `\s*` + rangeSep + `\s*` + fullDatePattern)
	fullDateRe      = regexp.MustCompile(fullDatePattern)

	twoMonthZhRe  = regexp.MustCompile(`(\d{1,2})月(\d{1,2})(?:日|號|号)?\s*` + rangeSep + `\s*(\d{1,2})月(\d{1,2})(?:日|號|号)?`)
	twoMonthNumRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})\s*` + rangeSep + `\s*(\d{1,2})/(\d{1,2})`)

	// The bare-second-number form still needs either a day suffix on the
	// first number, a separator, or whitespace, otherwise 12月15日 would
	// split into days 1 and 5.
	sharedMonthZhRe  = regexp.MustCompile(`(\d{1,2})月(\d{1,2})(?:(?:日|號|号)\s*` + rangeSep + `?\s*|\s*` + rangeSep + `\s*|\s+)(\d{1,2})(?:日|號|号)?`)
	sharedMonthNumRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})\s*` + rangeSep + `\s*(\d{1,2})`)

	monthDayRe = regexp.MustCompile(`(\d{1,2})[月/-](\d{1,2})(?:日|號|号)?`)

	daysAheadRe  = regexp.MustCompile(`(\d{1,3})天[後后]`)
	weeksAheadRe = regexp.MustCompile(`(\d{1,2})[週周][後后]`)
	nextWeekdayRe = regexp.MustCompile(`下[週周]([一二三四五六日天])`)

	// Month words are matched whole, so "maybe" never reads as May.
	englishMonthPattern = `\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\b\.?`
	englishRangeRe      = regexp.MustCompile(englishMonthPattern + `\s*(\d{1,2})(?:st|nd|rd|th)?\s*` + rangeSep + `\s*(?:` + englishMonthPattern + `\s*)?(\d{1,2})(?:st|nd|rd|th)?`)
)

var englishMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// monthNumber maps any matched month word ("dec", "sept", "december") to its
// month via the three-letter key.
func monthNumber(word string) int {
	if len(word) > 3 {
		word = word[:3]
	}
	return englishMonths[word]
}

var zhWeekdays = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6, "日": 7, "天": 7,
}

// makeDate validates a calendar date. time.Date normalizes overflow (Feb 30
// becomes Mar 2), so the round-trip check rejects impossible dates.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// nearestFuture applies the year inference rule: take the current year, and
// if that date has already passed, roll forward one year. Trip planning is
// always oriented to the upcoming season.
func nearestFuture(month, day int, today time.Time) (time.Time, bool) {
	d, ok := makeDate(today.Year(), month, day)
	if !ok {
		// Feb 29 may only exist next year.
		d, ok = makeDate(today.Year()+1, month, day)
		return d, ok
	}
	if d.Before(today) {
		return makeDate(today.Year()+1, month, day)
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (e *Extractor) parseFullDateRange(text string, _ time.Time) *domain.DateExtraction {
	m := fullDateRangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	start, okStart := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	end, okEnd := makeDate(atoi(m[4]), atoi(m[5]), atoi(m[6]))
	if !okStart || !okEnd || end.Before(start) {
		return nil
	}
	return &domain.DateExtraction{Kind: domain.ExtractionRange, Range: domain.NewDateRange(start, end)}
}

func (e *Extractor) parseFullDate(text string, _ time.Time) *domain.DateExtraction {
	m := fullDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	start, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	if !ok {
		return nil
	}
	return &domain.DateExtraction{Kind: domain.ExtractionPartial, Start: &start}
}

// parseTwoMonthDayRange handles ranges where both sides carry a month. An
// end month numerically smaller than the start month means the range
// crosses into the next year (12/30 to 1/2), never an error.
func (e *Extractor) parseTwoMonthDayRange(text string, today time.Time) *domain.DateExtraction {
	m := twoMonthZhRe.FindStringSubmatch(text)
	if m == nil {
		m = twoMonthNumRe.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}
	return e.rangeFromMonthDays(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), today)
}

func (e *Extractor) parseEnglishMonthRange(text string, today time.Time) *domain.DateExtraction {
	m := englishRangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	startMonth := monthNumber(m[1])
	endMonth := startMonth
	if m[3] != "" {
		endMonth = monthNumber(m[3])
	}
	return e.rangeFromMonthDays(startMonth, atoi(m[2]), endMonth, atoi(m[4]), today)
}

// parseSharedMonthDayRange handles M月D1-D2: both days share the stated
// month. Separators vary widely (hyphen, 到, 至, tilde, or nothing at all
// before a bare second number) and the trailing day suffix is optional.
func (e *Extractor) parseSharedMonthDayRange(text string, today time.Time) *domain.DateExtraction {
	m := sharedMonthZhRe.FindStringSubmatch(text)
	if m == nil {
		m = sharedMonthNumRe.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}
	month := atoi(m[1])
	return e.rangeFromMonthDays(month, atoi(m[2]), month, atoi(m[3]), today)
}

func (e *Extractor) rangeFromMonthDays(startMonth, startDay, endMonth, endDay int, today time.Time) *domain.DateExtraction {
	start, ok := nearestFuture(startMonth, startDay, today)
	if !ok {
		return nil
	}

	endYear := start.Year()
	if endMonth < startMonth {
		endYear++
	}
	end, ok := makeDate(endYear, endMonth, endDay)
	if !ok {
		return nil
	}

	// end < start after inference: discard rather than silently swap.
	if end.Before(start) {
		e.logger.Debug("Discarding inverted date range",
			zap.Time("start", start),
			zap.Time("end", end),
		)
		return nil
	}

	return &domain.DateExtraction{Kind: domain.ExtractionRange, Range: domain.NewDateRange(start, end)}
}

func (e *Extractor) parseMonthDay(text string, today time.Time) *domain.DateExtraction {
	m := monthDayRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	start, ok := nearestFuture(atoi(m[1]), atoi(m[2]), today)
	if !ok {
		return nil
	}
	return &domain.DateExtraction{Kind: domain.ExtractionPartial, Start: &start}
}

func (e *Extractor) parseRelative(text string, today time.Time) *domain.DateExtraction {
	partial := func(d time.Time) *domain.DateExtraction {
		return &domain.DateExtraction{Kind: domain.ExtractionPartial, Start: &d}
	}

	switch {
	case strings.Contains(text, "大後天"), strings.Contains(text, "大后天"):
		return partial(today.AddDate(0, 0, 3))
	case strings.Contains(text, "後天"), strings.Contains(text, "后天"):
		return partial(today.AddDate(0, 0, 2))
	case strings.Contains(text, "明天"), strings.Contains(text, "tomorrow"):
		return partial(today.AddDate(0, 0, 1))
	case strings.Contains(text, "今天"), strings.Contains(text, "今日"), strings.Contains(text, "today"):
		return partial(today)
	}

	if m := daysAheadRe.FindStringSubmatch(text); m != nil {
		return partial(today.AddDate(0, 0, atoi(m[1])))
	}
	if m := weeksAheadRe.FindStringSubmatch(text); m != nil {
		return partial(today.AddDate(0, 0, 7*atoi(m[1])))
	}
	if m := nextWeekdayRe.FindStringSubmatch(text); m != nil {
		target := zhWeekdays[m[1]]
		isoToday := (int(today.Weekday()) + 6) % 7 // Monday = 0
		daysToNextMonday := 7 - isoToday
		return partial(today.AddDate(0, 0, daysToNextMonday+target-1))
	}

	return nil
}
