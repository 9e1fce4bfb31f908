package engine

import (
	"testing"

	"VendorRadar/pkg/datetime"
	"VendorRadar/pkg/model"
)

func trendFixture() ([]model.POLine, []model.POLog) {
	lines := []model.POLine{
		{POLineID: "A-1", Vendor: "Acme", ETA: "2025-06-10"},
		{POLineID: "A-2", Vendor: "Acme", ETA: "2025-06-12"},
		{POLineID: "A-3", Vendor: "Acme", ETA: "2025-08-01"},
		{POLineID: "A-4", Vendor: "Acme", ETA: "2025-05-01"},
		{POLineID: "B-1", Vendor: "Other", ETA: "2025-06-10"},
	}
	logs := []model.POLog{
		etaLog("1", "A-3", "2025-06-12", "2025-07-01", "2025-08-01"),
		etaLog("2", "A-3", "2025-06-12T15:00:00Z", "2025-06-20", "2025-07-01"),
		etaLog("3", "A-1", "2025-06-14", "2025-06-20", "2025-06-10"),
		etaLog("4", "B-1", "2025-06-12", "2025-06-01", "2025-06-10"),
		etaLog("5", "A-3", "2025-05-01", "2025-06-01", "2025-07-01"),
	}
	return lines, logs
}

func TestBuildTrendSeries_Daily(t *testing.T) {
	lines, logs := trendFixture()
	series := BuildTrendSeries("Acme", lines, logs, 6, datetime.GranularityDay, testNow)

	if len(series.Points) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(series.Points))
	}
	if series.Points[0].Bucket != "2025-06-09" || series.Points[6].Bucket != "2025-06-15" {
		t.Fatalf("unexpected bucket range %s..%s", series.Points[0].Bucket, series.Points[6].Bucket)
	}
	if !series.HasData {
		t.Fatalf("expected data in series")
	}

	byBucket := make(map[string]TrendPoint)
	for _, p := range series.Points {
		byBucket[p.Bucket] = p
	}

	if got := byBucket["2025-06-12"].NegativeChanges; got != 2 {
		t.Fatalf("expected 2 negative changes on 06-12, got %d", got)
	}
	if got := byBucket["2025-06-14"].NegativeChanges; got != 0 {
		t.Fatalf("pulled-in ETA should not count, got %d", got)
	}
	if byBucket["2025-06-10"].NewlyPastDue != 1 || byBucket["2025-06-12"].NewlyPastDue != 1 {
		t.Fatalf("expected past due lines on 06-10 and 06-12, got %+v", series.Points)
	}
}

func TestBuildTrendSeries_Weekly(t *testing.T) {
	lines, logs := trendFixture()
	series := BuildTrendSeries("Acme", lines, logs, 6, datetime.GranularityWeek, testNow)

	if len(series.Points) != 1 {
		t.Fatalf("expected a single ISO week, got %+v", series.Points)
	}
	point := series.Points[0]
	if point.Bucket != "2025-W24" || point.NegativeChanges != 2 || point.NewlyPastDue != 2 {
		t.Fatalf("unexpected weekly point %+v", point)
	}
}

func TestBuildTrendSeries_NoData(t *testing.T) {
	series := BuildTrendSeries("Nobody", nil, nil, 30, datetime.GranularityMonth, testNow)
	if series.HasData {
		t.Fatalf("expected empty series")
	}
	if len(series.Points) != 2 || series.Points[0].Bucket != "2025-05" || series.Points[1].Bucket != "2025-06" {
		t.Fatalf("expected continuous monthly buckets, got %+v", series.Points)
	}
}

func TestBuildTrendSeries_ClampsDays(t *testing.T) {
	series := BuildTrendSeries("Nobody", nil, nil, 2_000_000, datetime.GranularityDay, testNow)
	if series.Days != MaxTrendDays || len(series.Points) != MaxTrendDays+1 {
		t.Fatalf("expected range clamped to %d days, got days=%d points=%d", MaxTrendDays, series.Days, len(series.Points))
	}

	series = BuildTrendSeries("Nobody", nil, nil, -5, datetime.GranularityDay, testNow)
	if series.Days != 0 || len(series.Points) != 1 {
		t.Fatalf("expected a single bucket for negative days, got %+v", series)
	}
}
