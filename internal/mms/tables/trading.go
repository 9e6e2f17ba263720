package tables

import "github.com/JonMunkholm/nemweb/internal/mms"

// TradingIS reports (PUBLIC_TRADINGIS_*.zip) carry both datasets below.

func interconnectorSchema() mms.Schema {
	return mms.Schema{
		Key:         mms.SchemaKey{Category: "TRADING", Report: "INTERCONNECTORRES", Version: "2"},
		Kind:        mms.KindInterconnector,
		Description: "Interconnector flows and losses per trading interval",
		Fields: []mms.FieldSpec{
			{Name: "SETTLEMENTDATE", Type: mms.FieldTimestamp},
			{Name: "RUNNO", Type: mms.FieldInt},
			{Name: "INTERCONNECTORID", Type: mms.FieldString},
			{Name: "PERIODID", Type: mms.FieldInt},
			{Name: "METEREDMWFLOW", Type: mms.FieldFloat},
			{Name: "MWFLOW", Type: mms.FieldFloat},
			{Name: "MWLOSSES", Type: mms.FieldFloat},
			{Name: "LASTCHANGED", Type: mms.FieldString},
		},
		Build: func(v *mms.Values) (mms.Record, error) {
			return &mms.Interconnector{
				SettlementDate:   v.Time("SETTLEMENTDATE"),
				RunNo:            v.Int("RUNNO"),
				InterconnectorID: v.String("INTERCONNECTORID"),
				PeriodID:         v.Int("PERIODID"),
				MeteredMWFlow:    v.Float("METEREDMWFLOW"),
				MWFlow:           v.Float("MWFLOW"),
				MWLosses:         v.Float("MWLOSSES"),
				LastChanged:      v.String("LASTCHANGED"),
			}, nil
		},
	}
}

// priceBands lists the FCAS price columns in file order.
var priceBands = []string{
	"RAISE6SECRRP", "RAISE6SECROP",
	"RAISE60SECRRP", "RAISE60SECROP",
	"RAISE5MINRRP", "RAISE5MINROP",
	"RAISEREGRRP", "RAISEREGROP",
	"LOWER6SECRRP", "LOWER6SECROP",
	"LOWER60SECRRP", "LOWER60SECROP",
	"LOWER5MINRRP", "LOWER5MINROP",
	"LOWERREGRRP", "LOWERREGROP",
	"RAISE1SECRRP", "RAISE1SECROP",
	"LOWER1SECRRP", "LOWER1SECROP",
}

func priceSchema() mms.Schema {
	fields := []mms.FieldSpec{
		{Name: "SETTLEMENTDATE", Type: mms.FieldTimestamp},
		{Name: "RUNNO", Type: mms.FieldInt},
		{Name: "REGIONID", Type: mms.FieldString},
		{Name: "PERIODID", Type: mms.FieldInt},
		{Name: "RRP", Type: mms.FieldFloat},
		{Name: "EEP", Type: mms.FieldFloat},
		{Name: "INVALIDFLAG", Type: mms.FieldInt},
		{Name: "LASTCHANGED", Type: mms.FieldTimestamp},
		{Name: "ROP", Type: mms.FieldFloat},
	}
	for _, band := range priceBands {
		fields = append(fields, mms.FieldSpec{Name: band, Type: mms.FieldFloat})
	}
	fields = append(fields, mms.FieldSpec{Name: "PRICE_STATUS", Type: mms.FieldString})

	return mms.Schema{
		Key:         mms.SchemaKey{Category: "TRADING", Report: "PRICE", Version: "3"},
		Kind:        mms.KindPrice,
		Description: "Regional reference prices and FCAS prices per trading interval",
		Fields:      fields,
		Build: func(v *mms.Values) (mms.Record, error) {
			return &mms.Price{
				SettlementDate: v.Time("SETTLEMENTDATE"),
				RunNo:          v.Int("RUNNO"),
				RegionID:       v.String("REGIONID"),
				PeriodID:       v.Int("PERIODID"),
				RRP:            v.Float("RRP"),
				EEP:            v.Float("EEP"),
				InvalidFlag:    v.Int("INVALIDFLAG"),
				LastChanged:    v.Time("LASTCHANGED"),
				ROP:            v.Float("ROP"),
				Raise6SecRRP:   v.Float("RAISE6SECRRP"),
				Raise6SecROP:   v.Float("RAISE6SECROP"),
				Raise60SecRRP:  v.Float("RAISE60SECRRP"),
				Raise60SecROP:  v.Float("RAISE60SECROP"),
				Raise5MinRRP:   v.Float("RAISE5MINRRP"),
				Raise5MinROP:   v.Float("RAISE5MINROP"),
				RaiseRegRRP:    v.Float("RAISEREGRRP"),
				RaiseRegROP:    v.Float("RAISEREGROP"),
				Lower6SecRRP:   v.Float("LOWER6SECRRP"),
				Lower6SecROP:   v.Float("LOWER6SECROP"),
				Lower60SecRRP:  v.Float("LOWER60SECRRP"),
				Lower60SecROP:  v.Float("LOWER60SECROP"),
				Lower5MinRRP:   v.Float("LOWER5MINRRP"),
				Lower5MinROP:   v.Float("LOWER5MINROP"),
				LowerRegRRP:    v.Float("LOWERREGRRP"),
				LowerRegROP:    v.Float("LOWERREGROP"),
				Raise1SecRRP:   v.Float("RAISE1SECRRP"),
				Raise1SecROP:   v.Float("RAISE1SECROP"),
				Lower1SecRRP:   v.Float("LOWER1SECRRP"),
				Lower1SecROP:   v.Float("LOWER1SECROP"),
				PriceStatus:    v.String("PRICE_STATUS"),
			}, nil
		},
	}
}
