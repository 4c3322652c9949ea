package service

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── ICS 节假日解析器 ─────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 工厂日历解析为停产日期列表。
//
// 规则：
//   - 每个 VEVENT 覆盖 [DTSTART, DTEND) 内的所有日期
//   - 全天事件（VALUE=DATE）无 DTEND 时视为单日
//   - 带时间的事件按 UTC 日历日取值
//   - RRULE 不展开，工厂日历按年导出为单次事件
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	icsMaxEventDays = 366
)

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// LoadHolidays 从本地路径或 http(s)/webcal URL 加载节假日
func LoadHolidays(source string) ([]time.Time, error) {
	var rc io.ReadCloser
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"), strings.HasPrefix(source, "webcal://"):
		r, err := FetchICSContent(source)
		if err != nil {
			return nil, err
		}
		rc = r
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("打开 ICS 文件失败: %w", err)
		}
		rc = f
	}
	defer rc.Close()

	return ParseHolidays(io.LimitReader(rc, icsMaxFileSize))
}

// ParseHolidays 解析 ICS 内容，返回去重并升序排列的停产日期（UTC 零点）
func ParseHolidays(reader io.Reader) ([]time.Time, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, evt := range cal.Events() {
		start, err := parseICSDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			continue
		}
		end, err := parseICSDate(evt, ics.ComponentPropertyDtEnd)
		if err != nil || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}

		n := 0
		for d := start; d.Before(end) && n < icsMaxEventDays; d = d.AddDate(0, 0, 1) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
			n++
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// parseICSDate 读取日期属性并截断到 UTC 日历日
func parseICSDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
