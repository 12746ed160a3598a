package model

import "strings"

// SectorPattern is read-only configuration describing a sector's
// keyword signals and how reliable its forecasts have been
type SectorPattern struct {
	Name            string   `yaml:"name" mapstructure:"name"`
	EarlyIndicators []string `yaml:"early_indicators" mapstructure:"early_indicators"`
	LateIndicators  []string `yaml:"late_indicators" mapstructure:"late_indicators"`
	AccuracyWeight  float64  `yaml:"accuracy_weight" mapstructure:"accuracy_weight"`
	TypicalDelays   []string `yaml:"typical_delays" mapstructure:"typical_delays"`
	SearchTerms     []string `yaml:"search_terms" mapstructure:"search_terms"`
	QueryKeywords   []string `yaml:"query_keywords" mapstructure:"query_keywords"`
}

// Indicator is a World Bank indicator mapped to a metric name
type Indicator struct {
	Key    string `yaml:"key" mapstructure:"key"`
	Code   string `yaml:"code" mapstructure:"code"`
	Metric string `yaml:"metric" mapstructure:"metric"`
	Sector string `yaml:"sector" mapstructure:"sector"`
}

// HistoricalRecord is a known forecast with its recorded outcome
type HistoricalRecord struct {
	ForecastYear   int
	TargetYear     int
	Sector         string
	Metric         string
	PredictedValue string
	ActualValue    string
	Source         string
}

// TargetRecord is an announced target still in flight
type TargetRecord struct {
	TargetYear int
	Sector     string
	Prediction Prediction
}

// FindSector looks a sector up by name, ignoring case
func FindSector(sectors []SectorPattern, name string) (SectorPattern, bool) {
	for _, s := range sectors {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SectorPattern{}, false
}

// SectorNames lists the sector names in configuration order
func SectorNames(sectors []SectorPattern) []string {
	names := make([]string, 0, len(sectors))
	for _, s := range sectors {
		names = append(names, s.Name)
	}
	return names
}

// DefaultSectors returns the built-in sector table
func DefaultSectors() []SectorPattern {
	return []SectorPattern{
		{
			Name:            "Economy",
			EarlyIndicators: []string{"digital", "services", "IT", "startup", "fintech"},
			LateIndicators:  []string{"manufacturing", "infrastructure", "heavy industry", "mining"},
			AccuracyWeight:  0.7,
			TypicalDelays:   []string{"policy implementation", "regulatory approval", "land acquisition"},
			SearchTerms:     []string{"GDP", "growth rate", "per capita income", "inflation", "economic"},
			QueryKeywords:   []string{"economy", "gdp", "growth", "economic"},
		},
		{
			Name:            "Energy",
			EarlyIndicators: []string{"solar", "wind", "renewable", "digital", "private sector"},
			LateIndicators:  []string{"coal", "nuclear", "grid", "transmission", "government"},
			AccuracyWeight:  0.6,
			TypicalDelays:   []string{"environmental clearance", "land acquisition", "grid connectivity"},
			SearchTerms:     []string{"power generation", "renewable energy", "coal production", "electricity", "solar", "wind"},
			QueryKeywords:   []string{"energy", "power", "renewable", "solar", "wind", "coal"},
		},
		{
			Name:            "Infrastructure",
			EarlyIndicators: []string{"metro", "airports", "digital", "private"},
			LateIndicators:  []string{"railway", "highway", "ports", "land acquisition", "government"},
			AccuracyWeight:  0.5,
			TypicalDelays:   []string{"land acquisition", "environmental clearance", "funding delays"},
			SearchTerms:     []string{"railway", "highway", "airports", "ports", "transport", "roads"},
			QueryKeywords:   []string{"infrastructure", "railway", "highway", "transport"},
		},
		{
			Name:            "Technology",
			EarlyIndicators: []string{"mobile", "internet", "digital", "startup", "private"},
			LateIndicators:  []string{"manufacturing", "hardware", "regulation", "government"},
			AccuracyWeight:  0.8,
			TypicalDelays:   []string{"regulatory approval", "data privacy laws", "spectrum allocation"},
			SearchTerms:     []string{"internet", "mobile", "digitization", "IT sector", "software", "telecom"},
			QueryKeywords:   []string{"technology", "digital", "internet", "mobile", "it"},
		},
		{
			Name:            "Agriculture",
			EarlyIndicators: []string{"irrigation", "seeds", "technology", "private"},
			LateIndicators:  []string{"land reform", "subsidies", "weather", "government"},
			AccuracyWeight:  0.6,
			TypicalDelays:   []string{"weather dependency", "policy changes", "market access"},
			SearchTerms:     []string{"food production", "crop yield", "irrigation", "farming", "agricultural"},
			QueryKeywords:   []string{"agriculture", "farming", "crop", "food"},
		},
		{
			Name:            "Education",
			EarlyIndicators: []string{"digital", "online", "private", "technology"},
			LateIndicators:  []string{"government", "infrastructure", "teachers", "rural"},
			AccuracyWeight:  0.7,
			TypicalDelays:   []string{"teacher recruitment", "infrastructure development", "curriculum updates"},
			SearchTerms:     []string{"literacy rate", "enrollment", "universities", "schools", "education"},
			QueryKeywords:   []string{"education", "literacy", "school", "university"},
		},
		{
			Name:            "Healthcare",
			EarlyIndicators: []string{"digital", "private", "pharma", "technology"},
			LateIndicators:  []string{"government", "infrastructure", "rural", "doctors"},
			AccuracyWeight:  0.6,
			TypicalDelays:   []string{"doctor shortage", "infrastructure gaps", "regulatory approval"},
			SearchTerms:     []string{"life expectancy", "infant mortality", "hospitals", "health", "medical"},
			QueryKeywords:   []string{"health", "medical", "hospital", "life expectancy"},
		},
		{
			Name:            "Environment",
			EarlyIndicators: []string{"solar", "electric", "private", "technology"},
			LateIndicators:  []string{"coal", "government", "industrial", "policy"},
			AccuracyWeight:  0.5,
			TypicalDelays:   []string{"policy implementation", "industrial resistance", "cost factors"},
			SearchTerms:     []string{"forest cover", "carbon emissions", "air quality", "pollution", "climate"},
			QueryKeywords:   []string{"environment", "climate", "pollution", "forest"},
		},
		{
			Name:            "Social Development",
			EarlyIndicators: []string{"digital", "urban", "private", "technology"},
			LateIndicators:  []string{"rural", "government", "infrastructure", "traditional"},
			AccuracyWeight:  0.6,
			TypicalDelays:   []string{"rural-urban divide", "implementation gaps", "behavioral change"},
			SearchTerms:     []string{"poverty rate", "human development index", "social", "development"},
			QueryKeywords:   []string{"poverty", "development", "social", "human development"},
		},
	}
}

// DefaultIndicators returns the World Bank indicators the engine knows about
func DefaultIndicators() []Indicator {
	return []Indicator{
		{Key: "GDP_GROWTH", Code: "NY.GDP.MKTP.KD.ZG", Metric: "GDP Growth Rate", Sector: "Economy"},
		{Key: "GDP_TOTAL", Code: "NY.GDP.MKTP.CD", Metric: "GDP Size", Sector: "Economy"},
		{Key: "GDP_PER_CAPITA", Code: "NY.GDP.PCAP.CD", Metric: "GDP Per Capita", Sector: "Economy"},
		{Key: "POPULATION", Code: "SP.POP.TOTL", Metric: "Population", Sector: "Social Development"},
		{Key: "ENERGY_USE", Code: "EG.USE.COMM.KT.OE", Metric: "Energy Use", Sector: "Energy"},
		{Key: "ELECTRIC_POWER", Code: "EG.ELC.PROD.KH", Metric: "Electric Power Production", Sector: "Energy"},
		{Key: "RENEWABLE_ENERGY", Code: "EG.FEC.RNEW.ZS", Metric: "Renewable Energy Share", Sector: "Energy"},
		{Key: "CO2_EMISSIONS", Code: "EN.ATM.CO2E.KT", Metric: "CO2 Emissions", Sector: "Environment"},
		{Key: "FOREST_AREA", Code: "AG.LND.FRST.K2", Metric: "Forest Area", Sector: "Environment"},
		{Key: "LIFE_EXPECTANCY", Code: "SP.DYN.LE00.IN", Metric: "Life Expectancy", Sector: "Healthcare"},
		{Key: "LITERACY_RATE", Code: "SE.ADT.LITR.ZS", Metric: "Literacy Rate", Sector: "Education"},
		{Key: "INFANT_MORTALITY", Code: "SP.DYN.IMRT.IN", Metric: "Infant Mortality", Sector: "Healthcare"},
	}
}

// FindIndicator resolves an indicator by key, code or metric name
func FindIndicator(indicators []Indicator, name string) (Indicator, bool) {
	for _, ind := range indicators {
		if strings.EqualFold(ind.Key, name) || strings.EqualFold(ind.Code, name) || strings.EqualFold(ind.Metric, name) {
			return ind, true
		}
	}
	return Indicator{}, false
}

// DefaultFeeds returns the news feeds searched for target evidence
func DefaultFeeds() []FeedConfig {
	return []FeedConfig{
		{Name: "Economic Times", URL: "https://economictimes.indiatimes.com/rssfeedstopstories.cms"},
		{Name: "The Hindu", URL: "https://www.thehindu.com/news/national/feeder/default.rss"},
		{Name: "RBI", URL: "https://www.rbi.org.in/scripts/rss.aspx"},
	}
}

// SourceKeywords maps publisher names to the phrases that identify them in a question
var SourceKeywords = []struct {
	Source   string
	Keywords []string
}{
	{"RBI", []string{"rbi", "reserve bank"}},
	{"NITI Aayog", []string{"niti", "aayog"}},
	{"World Bank", []string{"world bank"}},
	{"Planning Commission", []string{"planning commission", "five year plan"}},
	{"IEA", []string{"iea", "international energy"}},
	{"Economic Times", []string{"economic times"}},
	{"The Hindu", []string{"hindu"}},
}

// SampleHistorical returns the curated forecast records used as a
// baseline when search evidence is thin
func SampleHistorical() []HistoricalRecord {
	return []HistoricalRecord{
		{
			ForecastYear:   1975,
			TargetYear:     2000,
			Sector:         "Economy",
			Metric:         "GDP Growth Rate",
			PredictedValue: "6.5% annually",
			ActualValue:    "5.9% annually",
			Source:         "Fifth Five Year Plan",
		},
		{
			ForecastYear:   1975,
			TargetYear:     2000,
			Sector:         "Energy",
			Metric:         "Power Generation Capacity",
			PredictedValue: "100 GW",
			ActualValue:    "86 GW",
			Source:         "Power Ministry Plan 1975",
		},
		{
			ForecastYear:   2000,
			TargetYear:     2025,
			Sector:         "Economy",
			Metric:         "GDP Size",
			PredictedValue: "$5 Trillion",
			ActualValue:    "$3.7 Trillion (2024)",
			Source:         "Vision 2020 Document",
		},
	}
}

// CurrentTargets returns announced targets that have not yet come due
func CurrentTargets() []TargetRecord {
	return []TargetRecord{
		{
			TargetYear: 2030,
			Sector:     "Energy",
			Prediction: Prediction{
				Metric:           "Renewable Energy Capacity",
				TargetValue:      "450 GW",
				CurrentProgress:  "118 GW (2024)",
				Source:           "NITI Aayog",
				AnnouncementDate: "2019-09-23",
			},
		},
		{
			TargetYear: 2030,
			Sector:     "Economy",
			Prediction: Prediction{
				Metric:           "GDP Size",
				TargetValue:      "$5 Trillion",
				CurrentProgress:  "$3.7 Trillion (2024)",
				Source:           "Government of India",
				AnnouncementDate: "2019-08-15",
			},
		},
		{
			TargetYear: 2030,
			Sector:     "Infrastructure",
			Prediction: Prediction{
				Metric:           "Highway Length",
				TargetValue:      "200,000 km",
				CurrentProgress:  "146,000 km (2024)",
				Source:           "Ministry of Road Transport",
				AnnouncementDate: "2021-02-01",
			},
		},
	}
}
