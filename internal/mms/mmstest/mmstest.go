// Package mmstest provides sample MMS reports and archive builders for tests.
package mmstest

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Report joins lines with CRLF, the line ending NEMweb publishes.
func Report(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

const (
	InterconnectorHeader = "I,TRADING,INTERCONNECTORRES,2,SETTLEMENTDATE,RUNNO,INTERCONNECTORID,PERIODID,METEREDMWFLOW,MWFLOW,MWLOSSES,LASTCHANGED"
	InterconnectorRow    = `D,TRADING,INTERCONNECTORRES,2,"2024/03/03 13:35:00",1,N-Q-MNSP1,163,36.2,17,1.36,"2024/03/03 13:30:04"`
	InterconnectorRow2   = `D,TRADING,INTERCONNECTORRES,2,"2024/03/03 13:35:00",1,NSW1-QLD1,163,-512.3,-498.1,12.75,"2024/03/03 13:30:04"`

	PriceHeader = "I,TRADING,PRICE,3,SETTLEMENTDATE,RUNNO,REGIONID,PERIODID,RRP,EEP,INVALIDFLAG,LASTCHANGED,ROP," +
		"RAISE6SECRRP,RAISE6SECROP,RAISE60SECRRP,RAISE60SECROP,RAISE5MINRRP,RAISE5MINROP,RAISEREGRRP,RAISEREGROP," +
		"LOWER6SECRRP,LOWER6SECROP,LOWER60SECRRP,LOWER60SECROP,LOWER5MINRRP,LOWER5MINROP,LOWERREGRRP,LOWERREGROP," +
		"RAISE1SECRRP,RAISE1SECROP,LOWER1SECRRP,LOWER1SECROP,PRICE_STATUS"
	PriceRow = `D,TRADING,PRICE,3,"2024/03/03 13:35:00",1,NSW1,163,85.5,0,0,"2024/03/03 13:30:04",85.5,` +
		"1.1,1.1,0.9,0.9,0.5,0.5,12,12,0.2,0.2,0.3,0.3,0.4,0.4,9.5,9.5,0.01,0.01,0.02,0.02,FIRM"

	RooftopActualHeader = "I,ROOFTOP,ACTUAL,2,INTERVAL_DATETIME,REGIONID,POWER,QI,TYPE,LASTCHANGED"
	RooftopActualRow    = `D,ROOFTOP,ACTUAL,2,"2024/03/03 13:00:00",NSW1,2850.412,0.6,MEASUREMENT,"2024/03/03 13:20:15"`

	RooftopForecastHeader = "I,ROOFTOP,FORECAST,1,VERSION_DATETIME,REGIONID,INTERVAL_DATETIME,POWERMEAN,POWERPOE50,POWERPOELOW,POWERPOEHIGH,LASTCHANGED"
	RooftopForecastRow    = `D,ROOFTOP,FORECAST,1,"2024/03/03 13:00:00",QLD1,"2024/03/03 13:30:00",1500.5,1490.2,1200,1800.75,"2024/03/03 12:55:03"`

	Preamble    = "C,NEMP.WORLD,TRADINGIS,AEMO,PUBLIC,2024/03/03,13:30:08,0000000413460134,TRADINGIS,0000000413460128"
	EndOfReport = `C,"END OF REPORT",7`
)

// TradingIS is a TradingIS report with two interconnector rows and one price row.
var TradingIS = Report(
	Preamble,
	InterconnectorHeader,
	InterconnectorRow,
	InterconnectorRow2,
	PriceHeader,
	PriceRow,
	EndOfReport,
)

// RooftopActual is a ROOFTOP_PV ACTUAL report with one row.
var RooftopActual = Report(
	"C,NEMP.WORLD,ROOFTOP_PV_ACTUAL_MEASUREMENT,AEMO,PUBLIC,2024/03/03,13:20:15,0000000413459000,ROOFTOP_PV_ACTUAL_MEASUREMENT,0000000413458990",
	RooftopActualHeader,
	RooftopActualRow,
	`C,"END OF REPORT",4`,
)

// RooftopForecast is a ROOFTOP_PV FORECAST report with one row.
var RooftopForecast = Report(
	"C,NEMP.WORLD,ROOFTOP_PV_FORECAST,AEMO,PUBLIC,2024/03/03,12:55:03,0000000413458000,ROOFTOP_PV_FORECAST,0000000413457990",
	RooftopForecastHeader,
	RooftopForecastRow,
	`C,"END OF REPORT",4`,
)

// File is one member of a test archive.
type File struct {
	Name string
	Body []byte
}

// Zip builds an in-memory zip archive holding files in order.
func Zip(files ...File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
