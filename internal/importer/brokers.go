package importer

import "trade-journal-go/internal/models"

var longShortAliases = map[string]models.Direction{
	"long":  models.DirectionLong,
	"short": models.DirectionShort,
	"buy":   models.DirectionLong,
	"sell":  models.DirectionShort,
	"b":     models.DirectionLong,
	"s":     models.DirectionShort,
}

// builtinSchemas are the broker statement layouts the importer understands out
// of the box, in detection-precedence order. Schemas with larger required
// header sets go first so a more specific layout is never shadowed by a
// generic one.
var builtinSchemas = []BrokerSchema{
	{
		BrokerID:        "tradovate",
		DisplayName:     "Tradovate Performance Export",
		RequiredHeaders: []string{"symbol", "buyPrice", "sellPrice", "qty", "boughtTimestamp", "soldTimestamp"},
		Columns: ColumnMap{
			Symbol:     "symbol",
			Direction:  "side",
			EntryTime:  "boughtTimestamp",
			ExitTime:   "soldTimestamp",
			EntryPrice: "buyPrice",
			ExitPrice:  "sellPrice",
			Quantity:   "qty",
			Commission: "commission",
		},
		DateFormat:       "01/02/2006 15:04:05",
		SignConvention:   SignPriceLegs,
		AssetType:        models.AssetFuture,
		DirectionAliases: longShortAliases,
	},
	{
		BrokerID:        "topstep",
		DisplayName:     "Topstep Trade Log",
		RequiredHeaders: []string{"ContractName", "EnteredAt", "EntryPrice", "Size", "PnL", "Type"},
		Columns: ColumnMap{
			Symbol:     "ContractName",
			Direction:  "Type",
			EntryTime:  "EnteredAt",
			ExitTime:   "ExitedAt",
			EntryPrice: "EntryPrice",
			Quantity:   "Size",
			Commission: "Fees",
			Pnl:        "PnL",
		},
		DateFormat:       "2006-01-02 15:04:05",
		SignConvention:   SignSignedPnl,
		AssetType:        models.AssetFuture,
		DirectionAliases: longShortAliases,
	},
	{
		BrokerID:        "ninjatrader",
		DisplayName:     "NinjaTrader Trade Performance",
		RequiredHeaders: []string{"Instrument", "Market pos.", "Entry price", "Exit price", "Qty", "Entry time"},
		Columns: ColumnMap{
			Symbol:     "Instrument",
			Direction:  "Market pos.",
			EntryTime:  "Entry time",
			ExitTime:   "Exit time",
			EntryPrice: "Entry price",
			ExitPrice:  "Exit price",
			Quantity:   "Qty",
			Commission: "Commission",
		},
		DateFormat:       "2006-01-02 15:04:05",
		SignConvention:   SignPriceLegs,
		AssetType:        models.AssetFuture,
		DirectionAliases: longShortAliases,
	},
}
