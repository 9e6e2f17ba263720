package tables

import "github.com/JonMunkholm/nemweb/internal/mms"

// ROOFTOP_PV reports publish the actual and forecast datasets in separate
// archives under /Reports/Current/ROOFTOP_PV/.

func rooftopActualSchema() mms.Schema {
	return mms.Schema{
		Key:         mms.SchemaKey{Category: "ROOFTOP", Report: "ACTUAL", Version: "2"},
		Kind:        mms.KindRooftopPvActual,
		Description: "Estimated rooftop PV generation per region",
		Fields: []mms.FieldSpec{
			{Name: "INTERVAL_DATETIME", Type: mms.FieldTimestamp},
			{Name: "REGIONID", Type: mms.FieldString},
			{Name: "POWER", Type: mms.FieldFloat},
			{Name: "QI", Type: mms.FieldFloat},
			{Name: "TYPE", Type: mms.FieldString},
			{Name: "LASTCHANGED", Type: mms.FieldTimestamp},
		},
		Build: func(v *mms.Values) (mms.Record, error) {
			return &mms.RooftopPvActual{
				IntervalDatetime: v.Time("INTERVAL_DATETIME"),
				RegionID:         v.String("REGIONID"),
				Power:            v.Float("POWER"),
				QI:               v.Float("QI"),
				Type:             v.String("TYPE"),
				LastChanged:      v.Time("LASTCHANGED"),
			}, nil
		},
	}
}

func rooftopForecastSchema() mms.Schema {
	return mms.Schema{
		Key:         mms.SchemaKey{Category: "ROOFTOP", Report: "FORECAST", Version: "1"},
		Kind:        mms.KindRooftopPvForecast,
		Description: "Rooftop PV generation forecast per region",
		Fields: []mms.FieldSpec{
			{Name: "VERSION_DATETIME", Type: mms.FieldTimestamp},
			{Name: "REGIONID", Type: mms.FieldString},
			{Name: "INTERVAL_DATETIME", Type: mms.FieldTimestamp},
			{Name: "POWERMEAN", Type: mms.FieldFloat},
			{Name: "POWERPOE50", Type: mms.FieldFloat},
			{Name: "POWERPOELOW", Type: mms.FieldFloat},
			{Name: "POWERPOEHIGH", Type: mms.FieldFloat},
			{Name: "LASTCHANGED", Type: mms.FieldTimestamp},
		},
		Build: func(v *mms.Values) (mms.Record, error) {
			return &mms.RooftopPvForecast{
				VersionDatetime:  v.Time("VERSION_DATETIME"),
				RegionID:         v.String("REGIONID"),
				IntervalDatetime: v.Time("INTERVAL_DATETIME"),
				PowerMean:        v.Float("POWERMEAN"),
				PowerPOE50:       v.Float("POWERPOE50"),
				PowerPOELow:      v.Float("POWERPOELOW"),
				PowerPOEHigh:     v.Float("POWERPOEHIGH"),
				LastChanged:      v.Time("LASTCHANGED"),
			}, nil
		},
	}
}
