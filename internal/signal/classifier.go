package signal

import (
	"regexp"
	"strconv"
	"strings"
)

// Pattern priority is fixed: stopped-out first so a flatten instruction is
// never mistaken for anything else, entries last so lifecycle alerts embedding
// price levels do not open positions. First match wins.
var (
	stoppedRe = regexp.MustCompile(`(?i)\bstopped\b`)
	trimRe    = regexp.MustCompile(`(?i)\btrim\b[^\d]*(\d+)\s*/\s*(\d+)`)
	entryRe   = regexp.MustCompile(`(?i)\bES\s+(long|short)\b[:\s]+([0-9.]+)\s*,?\s*([A-Za-z])\b\s*,?\s*stop[:\s]+([0-9.]+)`)

	targetHitRe = regexp.MustCompile(`(?i)target\s*1\s*hit\W*([A-Z]{1,10})\s*\((\d+)m?\)\s*level[:\s]+([0-9.]+)\s*target[:\s]+([0-9.]+)\s*entry[:\s]+([0-9.]+)\s*profit[:\s]+(-?[0-9.]+)(?:\s*pts)?\s*time[:\s]+(\S+)`)
	target2Re   = regexp.MustCompile(`(?i)target\s*2\s*hit\W*([A-Z]{1,10})\s*\((\d+)m?\)\s*level[:\s]+([0-9.]+)\s*target[:\s]+([0-9.]+)\s*entry[:\s]+([0-9.]+)\s*profit[:\s]+(-?[0-9.]+)(?:\s*pts)?\s*time[:\s]+(\S+)`)
	stopLossRe  = regexp.MustCompile(`(?i)stop\s*loss\s*hit\W*([A-Z]{1,10})\s*\((\d+)m?\)\s*level[:\s]+([0-9.]+)\s*entry[:\s]+([0-9.]+)\s*exit[:\s]+([0-9.]+)\s*loss[:\s]+(-?[0-9.]+)(?:\s*pts)?\s*time[:\s]+(\S+)`)
	// Simple form: same fields, no trailing time. Guarded by a literal
	// "Loss:" check so plain chatter mentioning stops does not match.
	stopLossSimpleRe = regexp.MustCompile(`(?i)stop\s*loss\W*([A-Z]{1,10})\s*\((\d+)m?\)\s*level[:\s]+([0-9.]+)\s*entry[:\s]+([0-9.]+)\s*exit[:\s]+([0-9.]+)\s*loss[:\s]+(-?[0-9.]+)`)
	triggeredRe      = regexp.MustCompile(`(?i)long\s*triggered\W*([A-Z]{1,10})\s*\((\d+)m?\)\s*level[:\s]+([0-9.]+)\s*score[:\s]+(\d+\s*/\s*\d+)\s*price[:\s]+([0-9.]+)\s*time[:\s]+(\S+)`)
)

// Classify parses raw alert text into a typed event.
//
// It returns (nil, nil) when no pattern matches; the caller treats that as a
// classification miss, not an error. A matched pattern with a malformed
// numeric field returns a *ParseError.
//
// Trim and letter-entry are primary-channel grammar, honored only when the
// message mentioned everyone; the secondary channel delivers embeds, carries
// no mention flag, and speaks only the triggered/lifecycle forms.
func Classify(text string, mentionsEveryone bool, src Source) (Event, error) {
	broadcast := mentionsEveryone || src != SourcePrimary

	if broadcast && stoppedRe.MatchString(text) {
		return StoppedOut{Src: src}, nil
	}

	if m := trimRe.FindStringSubmatch(text); src == SourcePrimary && broadcast && m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ParseError{Pattern: "trim", Field: "numerator", Err: err}
		}
		den, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, &ParseError{Pattern: "trim", Field: "denominator", Err: err}
		}
		return Trim{Src: src, Numerator: num, Denominator: den}, nil
	}

	if m := entryRe.FindStringSubmatch(text); src == SourcePrimary && broadcast && m != nil {
		price, err := parseFloat("entry", "price", m[2])
		if err != nil {
			return nil, err
		}
		stop, err := parseFloat("entry", "stop", m[4])
		if err != nil {
			return nil, err
		}
		return Entry{
			Src:       src,
			Direction: strings.ToLower(m[1]),
			Price:     price,
			Letter:    strings.ToUpper(m[3]),
			StopValue: stop,
		}, nil
	}

	if m := targetHitRe.FindStringSubmatch(text); m != nil {
		return parseTargetForm(src, "target_hit", m, false)
	}
	if m := target2Re.FindStringSubmatch(text); m != nil {
		return parseTargetForm(src, "target2_hit", m, true)
	}

	if m := stopLossRe.FindStringSubmatch(text); m != nil {
		return parseStopLoss(src, "stop_loss", m, m[7], false)
	}
	if m := stopLossSimpleRe.FindStringSubmatch(text); m != nil && strings.Contains(text, "Loss:") {
		return parseStopLoss(src, "stop_loss_simple", m, "", true)
	}

	if m := triggeredRe.FindStringSubmatch(text); m != nil {
		interval, err := parseInt("entry_triggered", "interval", m[2])
		if err != nil {
			return nil, err
		}
		level, err := parseFloat("entry_triggered", "level", m[3])
		if err != nil {
			return nil, err
		}
		price, err := parseFloat("entry_triggered", "price", m[5])
		if err != nil {
			return nil, err
		}
		return EntryTriggered{
			Src:      src,
			Symbol:   m[1],
			Interval: interval,
			Level:    level,
			Score:    strings.ReplaceAll(m[4], " ", ""),
			Price:    price,
			Time:     m[6],
		}, nil
	}

	return nil, nil
}

func parseTargetForm(src Source, pattern string, m []string, second bool) (Event, error) {
	interval, err := parseInt(pattern, "interval", m[2])
	if err != nil {
		return nil, err
	}
	level, err := parseFloat(pattern, "level", m[3])
	if err != nil {
		return nil, err
	}
	target, err := parseFloat(pattern, "target", m[4])
	if err != nil {
		return nil, err
	}
	entry, err := parseFloat(pattern, "entry", m[5])
	if err != nil {
		return nil, err
	}
	profit, err := parseFloat(pattern, "profit", m[6])
	if err != nil {
		return nil, err
	}
	if second {
		return Target2Hit{
			Src: src, Symbol: m[1], Interval: interval, Level: level,
			TargetPrice: target, EntryPrice: entry, Profit: profit, Time: m[7],
		}, nil
	}
	return TargetHit{
		Src: src, Symbol: m[1], Interval: interval, Level: level,
		TargetPrice: target, EntryPrice: entry, Profit: profit, Time: m[7],
	}, nil
}

func parseStopLoss(src Source, pattern string, m []string, ts string, simple bool) (Event, error) {
	interval, err := parseInt(pattern, "interval", m[2])
	if err != nil {
		return nil, err
	}
	level, err := parseFloat(pattern, "level", m[3])
	if err != nil {
		return nil, err
	}
	entry, err := parseFloat(pattern, "entry", m[4])
	if err != nil {
		return nil, err
	}
	exit, err := parseFloat(pattern, "exit", m[5])
	if err != nil {
		return nil, err
	}
	loss, err := parseFloat(pattern, "loss", m[6])
	if err != nil {
		return nil, err
	}
	return StopLoss{
		Src: src, Symbol: m[1], Interval: interval, Level: level,
		EntryPrice: entry, ExitPrice: exit, Loss: loss, Time: ts, Simple: simple,
	}, nil
}

func parseFloat(pattern, field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Pattern: pattern, Field: field, Err: err}
	}
	return v, nil
}

func parseInt(pattern, field, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParseError{Pattern: pattern, Field: field, Err: err}
	}
	return v, nil
}
