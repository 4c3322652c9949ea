package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const holidayICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//plant//calendar//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:shutdown-1\r\n" +
	"SUMMARY:Spring shutdown\r\n" +
	"DTSTART;VALUE=DATE:20250305\r\n" +
	"DTEND;VALUE=DATE:20250307\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:audit-1\r\n" +
	"SUMMARY:Audit\r\n" +
	"DTSTART:20250311T140000Z\r\n" +
	"DTEND:20250311T170000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:dup-1\r\n" +
	"SUMMARY:Duplicate\r\n" +
	"DTSTART;VALUE=DATE:20250306\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseHolidays(t *testing.T) {
	days, err := ParseHolidays(strings.NewReader(holidayICS))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}

	want := []time.Time{utcDay(2025, 3, 5), utcDay(2025, 3, 6), utcDay(2025, 3, 11)}
	if len(days) != len(want) {
		t.Fatalf("期望 %d 天，实际: %v", len(want), days)
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Errorf("第 %d 天期望 %s，实际 %s", i, want[i].Format(dateLayout), days[i].Format(dateLayout))
		}
	}
}

func TestLoadHolidays_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.ics")
	if err := os.WriteFile(path, []byte(holidayICS), 0o600); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}

	days, err := LoadHolidays(path)
	if err != nil {
		t.Fatalf("加载应成功: %v", err)
	}
	if len(days) != 3 {
		t.Errorf("期望 3 天，实际: %d", len(days))
	}
}

func TestLoadHolidays_MissingFile(t *testing.T) {
	if _, err := LoadHolidays(filepath.Join(t.TempDir(), "missing.ics")); err == nil {
		t.Error("期望文件不存在时报错")
	}
}
