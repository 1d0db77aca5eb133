package sensor

import "time"

// TimeFormat is the layout used for history timestamps.
const TimeFormat = "15:04:05"

// Label prefixes and value suffixes for the current-value block.
const (
	TemperatureLabel = "Температура: "
	HumidityLabel    = "Влажност: "
	GasLevelLabel    = "Газ/Дим (MQ-2): "
	StatusLabel      = "Състояние: "

	TemperatureUnit = " °C"
	HumidityUnit    = " %"
	GasLevelScale   = " / 4095"
)

const (
	loadingText  = "Зареждане..."
	labelError   = "Грешка!"
	rowError     = "Грешка"
	rowErrorHead = "Грешка: "
)

// DisplayState is the block of current values shown above the history table.
// It is overwritten wholesale on every tick.
type DisplayState struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	GasLevel    string `json:"gas_level"`
	Status      string `json:"status"`
	Color       Color  `json:"color"`
}

// LoadingDisplay is shown before the first tick completes.
func LoadingDisplay() DisplayState {
	return DisplayState{
		Temperature: TemperatureLabel + loadingText,
		Humidity:    HumidityLabel + loadingText,
		GasLevel:    GasLevelLabel + loadingText,
		Status:      StatusLabel + loadingText,
		Color:       Black,
	}
}

// Display renders the outcome as the current-value block.
func (o Outcome) Display() DisplayState {
	if o.Failure != nil {
		return DisplayState{
			Temperature: TemperatureLabel + labelError,
			Humidity:    HumidityLabel + labelError,
			GasLevel:    GasLevelLabel + labelError,
			Status:      StatusLabel + o.Failure.Reason,
			Color:       ErrorColor,
		}
	}

	f := EmptyFields()
	if o.Reading != nil {
		f = o.Reading.Fields
	}
	return DisplayState{
		Temperature: TemperatureLabel + f.Temperature + TemperatureUnit,
		Humidity:    HumidityLabel + f.Humidity + HumidityUnit,
		GasLevel:    GasLevelLabel + f.GasLevel + GasLevelScale,
		Status:      StatusLabel + f.StatusText,
		Color:       ColorFor(f.Category),
	}
}

// Row is one line of the history table.
type Row struct {
	Seq         uint64   `json:"seq"`
	Time        string   `json:"time"`
	Temperature string   `json:"temperature"`
	Humidity    string   `json:"humidity"`
	GasLevel    string   `json:"gas_level"`
	Status      string   `json:"status"`
	Category    Category `json:"category"`
	Failed      bool     `json:"failed"`
}

// Row renders the outcome as a history row. Failed ticks show the error
// placeholder in every value column, never a partial reading.
func (o Outcome) Row() Row {
	row := Row{
		Seq:  o.Seq,
		Time: formatTime(o.Timestamp()),
	}

	if o.Failure != nil {
		row.Temperature = rowError
		row.Humidity = rowError
		row.GasLevel = rowError
		row.Status = rowErrorHead + o.Failure.Reason
		row.Category = CategoryUnknown
		row.Failed = true
		return row
	}

	f := EmptyFields()
	if o.Reading != nil {
		f = o.Reading.Fields
	}
	row.Temperature = f.Temperature
	row.Humidity = f.Humidity
	row.GasLevel = f.GasLevel
	row.Status = f.StatusText
	row.Category = f.Category
	return row
}

// Cells returns the row's visible columns in table order.
func (r Row) Cells() []string {
	return []string{r.Time, r.Temperature, r.Humidity, r.GasLevel, r.Status}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeFormat)
}
