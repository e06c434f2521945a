package track

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// B-record layout, 0-indexed:
//
//	B HHMMSS DDMMmmm N DDDMMmmm E V PPPPP GGGGG
//	0 1      7       14 15      23 24 25   30  35
const minFixLen = 35

var headerDate = regexp.MustCompile(`HFDTE(\d{2})(\d{2})(\d{2})`)

// ParseIGC decodes the fix (B) records of an IGC log in line order. Points
// carry a UTC timestamp only when the log has an HFDTE date header. The
// record's time of day is applied to that date as is: a flight crossing
// midnight UTC is not rolled over to the next day.
func ParseIGC(r io.Reader) ([]Point, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	text := string(b)
	date, hasDate := igcHeaderDate(text)

	out := make([]Point, 0, 1024)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if len(line) < minFixLen || line[0] != 'B' {
			continue
		}
		p, ok := decodeFix(line, date, hasDate)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseIGCFile opens path and parses it as IGC.
func ParseIGCFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return ParseIGC(f)
}

// igcHeaderDate finds HFDTEddmmyy anywhere in text. Two-digit years below
// 80 are 20yy, the rest 19yy.
func igcHeaderDate(text string) (time.Time, bool) {
	m := headerDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	dd, _ := atoiField(m[1])
	mm, _ := atoiField(m[2])
	yy, _ := atoiField(m[3])
	year := 1900 + yy
	if yy < 80 {
		year = 2000 + yy
	}
	return time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC), true
}

func decodeFix(line string, date time.Time, hasDate bool) (Point, bool) {
	lat, ok := igcDegrees(line[7:9], line[9:11], line[11:14], line[14] == 'S')
	if !ok {
		return Point{}, false
	}
	lon, ok := igcDegrees(line[15:18], line[18:20], line[20:23], line[23] == 'W')
	if !ok {
		return Point{}, false
	}

	p := Point{Lat: lat, Lon: lon}
	if gps, ok := atoiField(line[30:35]); ok {
		p.Ele = float64(gps)
	} else if pres, ok := atoiField(line[25:30]); ok {
		p.Ele = float64(pres)
	}

	if hasDate {
		hh, okH := atoiField(line[1:3])
		mi, okM := atoiField(line[3:5])
		ss, okS := atoiField(line[5:7])
		if okH && okM && okS {
			t := time.Date(date.Year(), date.Month(), date.Day(), hh, mi, ss, 0, time.UTC)
			p.Time = &t
		}
	}
	return p, true
}

// igcDegrees converts degrees, whole minutes and thousandths of a minute
// to signed decimal degrees.
func igcDegrees(deg, min, thousandths string, negative bool) (float64, bool) {
	d, ok1 := atoiField(deg)
	m, ok2 := atoiField(min)
	k, ok3 := atoiField(thousandths)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	v := float64(d) + (float64(m)+float64(k)/1000)/60
	if negative {
		v = -v
	}
	return v, true
}

// atoiField reads an optionally signed leading run of digits, ignoring
// surrounding blanks and anything after the digits. It fails only when no
// digit is present.
func atoiField(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
