package mms

import "time"

// RecordKind tags each record variant.
type RecordKind string

const (
	KindInterconnector    RecordKind = "interconnector"
	KindPrice             RecordKind = "price"
	KindRooftopPvActual   RecordKind = "rooftop_pv_actual"
	KindRooftopPvForecast RecordKind = "rooftop_pv_forecast"
)

// Record is the closed set of decoded values. Use a type switch over the
// pointer variants below. Sections with no registered schema are reported
// separately as Unrecognized, never as a Record.
type Record interface {
	Kind() RecordKind
	record()
}

// Interconnector is a TRADING,INTERCONNECTORRES,2 row: 5-minute flow across
// one interconnector.
type Interconnector struct {
	SettlementDate   time.Time `json:"settlement_date"`
	RunNo            *int64    `json:"run_no"`
	InterconnectorID string    `json:"interconnector_id"`
	PeriodID         *int64    `json:"period_id"`
	MeteredMWFlow    *float64  `json:"metered_mw_flow"`
	MWFlow           *float64  `json:"mw_flow"`
	MWLosses         *float64  `json:"mw_losses"`
	LastChanged      string    `json:"last_changed"`
}

// Price is a TRADING,PRICE,3 row: regional energy and FCAS prices for one
// trading interval.
type Price struct {
	SettlementDate time.Time `json:"settlement_date"`
	RunNo          *int64    `json:"run_no"`
	RegionID       string    `json:"region_id"`
	PeriodID       *int64    `json:"period_id"`
	RRP            *float64  `json:"rrp"`
	EEP            *float64  `json:"eep"`
	InvalidFlag    *int64    `json:"invalid_flag"`
	LastChanged    time.Time `json:"last_changed"`
	ROP            *float64  `json:"rop"`

	Raise6SecRRP  *float64 `json:"raise_6_sec_rrp"`
	Raise6SecROP  *float64 `json:"raise_6_sec_rop"`
	Raise60SecRRP *float64 `json:"raise_60_sec_rrp"`
	Raise60SecROP *float64 `json:"raise_60_sec_rop"`
	Raise5MinRRP  *float64 `json:"raise_5_min_rrp"`
	Raise5MinROP  *float64 `json:"raise_5_min_rop"`
	RaiseRegRRP   *float64 `json:"raise_reg_rrp"`
	RaiseRegROP   *float64 `json:"raise_reg_rop"`
	Lower6SecRRP  *float64 `json:"lower_6_sec_rrp"`
	Lower6SecROP  *float64 `json:"lower_6_sec_rop"`
	Lower60SecRRP *float64 `json:"lower_60_sec_rrp"`
	Lower60SecROP *float64 `json:"lower_60_sec_rop"`
	Lower5MinRRP  *float64 `json:"lower_5_min_rrp"`
	Lower5MinROP  *float64 `json:"lower_5_min_rop"`
	LowerRegRRP   *float64 `json:"lower_reg_rrp"`
	LowerRegROP   *float64 `json:"lower_reg_rop"`
	Raise1SecRRP  *float64 `json:"raise_1_sec_rrp"`
	Raise1SecROP  *float64 `json:"raise_1_sec_rop"`
	Lower1SecRRP  *float64 `json:"lower_1_sec_rrp"`
	Lower1SecROP  *float64 `json:"lower_1_sec_rop"`

	PriceStatus string `json:"price_status"`
}

// RooftopPvActual is a ROOFTOP,ACTUAL,2 row: estimated rooftop PV output.
type RooftopPvActual struct {
	IntervalDatetime time.Time `json:"interval_datetime"`
	RegionID         string    `json:"region_id"`
	Power            *float64  `json:"power"`
	QI               *float64  `json:"qi"`
	Type             string    `json:"type"`
	LastChanged      time.Time `json:"last_changed"`
}

// RooftopPvForecast is a ROOFTOP,FORECAST,1 row.
type RooftopPvForecast struct {
	VersionDatetime  time.Time `json:"version_datetime"`
	RegionID         string    `json:"region_id"`
	IntervalDatetime time.Time `json:"interval_datetime"`
	PowerMean        *float64  `json:"power_mean"`
	PowerPOE50       *float64  `json:"power_poe50"`
	PowerPOELow      *float64  `json:"power_poe_low"`
	PowerPOEHigh     *float64  `json:"power_poe_high"`
	LastChanged      time.Time `json:"last_changed"`
}

// Unrecognized reports a header whose key has no registered schema. Its data
// rows are skipped. Err gives the diagnostic as an ErrUnrecognizedSchema.
type Unrecognized struct {
	Key    SchemaKey `json:"key"`
	Fields []string  `json:"fields"`
	Line   int       `json:"line"`
}

func (*Interconnector) Kind() RecordKind    { return KindInterconnector }
func (*Price) Kind() RecordKind             { return KindPrice }
func (*RooftopPvActual) Kind() RecordKind   { return KindRooftopPvActual }
func (*RooftopPvForecast) Kind() RecordKind { return KindRooftopPvForecast }

func (*Interconnector) record()    {}
func (*Price) record()             {}
func (*RooftopPvActual) record()   {}
func (*RooftopPvForecast) record() {}
