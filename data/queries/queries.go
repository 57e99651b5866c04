package queries

import (
	"embed"
	"fmt"
)

//go:embed ddl/*.sql delete/*.sql insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive embeds the sql files into the binary at compile time

type DdlQueries struct {
	Schema string
}

type DeleteQueries struct {
	MetadataById             string
	TimeSeriesDataBySourceId string
}

type InsertQueries struct {
	AnalysisRun string
	Metadata    string
}

type SelectQueries struct {
	AllMetaData                 string
	AnalysisRunById             string
	MetaDataBySymbol            string
	MostRecentTimestampBySymbol string
	PricePanel                  string
	TimeSeriesData              string
}

type UpdateQueries struct {
	AnalysisRun       string
	LastRefreshedDate string
}

type QueryHelperStruct struct {
	Ddl    DdlQueries
	Delete DeleteQueries
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Ddl: DdlQueries{
		Schema: "ddl/schema.sql",
	},
	Delete: DeleteQueries{
		MetadataById:             "delete/metadata_by_id.sql",
		TimeSeriesDataBySourceId: "delete/time_series_data_by_source_id.sql",
	},
	Insert: InsertQueries{
		AnalysisRun: "insert/analysis_run.sql",
		Metadata:    "insert/metadata.sql",
	},
	Select: SelectQueries{
		AllMetaData:                 "select/all_meta_data.sql",
		AnalysisRunById:             "select/analysis_run_by_id.sql",
		MetaDataBySymbol:            "select/meta_data_by_symbol.sql",
		MostRecentTimestampBySymbol: "select/most_recent_timestamp_by_symbol.sql",
		PricePanel:                  "select/price_panel.sql",
		TimeSeriesData:              "select/time_series_data.sql",
	},
	Update: UpdateQueries{
		AnalysisRun:       "update/analysis_run.sql",
		LastRefreshedDate: "update/last_refreshed_date.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
