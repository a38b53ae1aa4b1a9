package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Google     GoogleConfig
	AirQuality AirQualityConfig
	GeoData    GeoDataConfig
	Assessment AssessmentConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	Worker     WorkerConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type GoogleConfig struct {
	APIKey         string
	PlacesURL      string
	RoadsURL       string
	ElevationURL   string
	RequestTimeout time.Duration
}

type AirQualityConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type GeoDataConfig struct {
	PopulationTIFF   string
	SeismicZip       string
	SeismicDir       string
	SeismicZoneField string
	RasterBlockCache int
}

type AssessmentConfig struct {
	OffsetKm          float64
	HospitalRadiusM   int
	TransportRadiusM  int
	ProtectionRadiusM int
	ResultsCSVPath    string
	ResultsXLSXPath   string
	ResultsGeoJSON    string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TTL          time.Duration
	H3Resolution int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	ClaimMinIdle      time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")

	v.SetDefault("GOOGLE_PLACES_URL", "https://maps.googleapis.com/maps/api/place/nearbysearch/json")
	v.SetDefault("GOOGLE_ROADS_URL", "https://roads.googleapis.com/v1/nearestRoads")
	v.SetDefault("GOOGLE_ELEVATION_URL", "https://maps.googleapis.com/maps/api/elevation/json")
	v.SetDefault("GOOGLE_REQUEST_TIMEOUT", 15)

	v.SetDefault("AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com/v1/air-quality")
	v.SetDefault("AIR_QUALITY_REQUEST_TIMEOUT", 15)

	v.SetDefault("POPULATION_TIFF", "ind_pd_2020_1km.tif")
	v.SetDefault("SEISMIC_ZIP", "Seismic_Zones.zip")
	v.SetDefault("SEISMIC_DIR", "seismic")
	v.SetDefault("SEISMIC_ZONE_FIELD", "seismic_zo")
	v.SetDefault("RASTER_BLOCK_CACHE", 256)

	v.SetDefault("ASSESSMENT_OFFSET_KM", 2.0)
	v.SetDefault("HOSPITAL_RADIUS_M", 5000)
	v.SetDefault("TRANSPORT_RADIUS_M", 2000)
	v.SetDefault("PROTECTION_RADIUS_M", 5000)
	v.SetDefault("RESULTS_CSV_PATH", "location_analysis_results.csv")
	v.SetDefault("RESULTS_XLSX_PATH", "")
	v.SetDefault("RESULTS_GEOJSON_PATH", "")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_TTL", 86400)
	v.SetDefault("CACHE_H3_RESOLUTION", 10)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_ENABLED", false)
	v.SetDefault("WORKER_CONSUMER_GROUP", "site-assessment-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	v.SetDefault("WORKER_CLAIM_MIN_IDLE", 60000)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile читает конфигурацию из указанного env-файла; отсутствие файла не является ошибкой
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
		},
		Google: GoogleConfig{
			APIKey:         v.GetString("GOOGLE_API_KEY"),
			PlacesURL:      v.GetString("GOOGLE_PLACES_URL"),
			RoadsURL:       v.GetString("GOOGLE_ROADS_URL"),
			ElevationURL:   v.GetString("GOOGLE_ELEVATION_URL"),
			RequestTimeout: time.Duration(v.GetInt("GOOGLE_REQUEST_TIMEOUT")) * time.Second,
		},
		AirQuality: AirQualityConfig{
			BaseURL:        v.GetString("AIR_QUALITY_URL"),
			RequestTimeout: time.Duration(v.GetInt("AIR_QUALITY_REQUEST_TIMEOUT")) * time.Second,
		},
		GeoData: GeoDataConfig{
			PopulationTIFF:   v.GetString("POPULATION_TIFF"),
			SeismicZip:       v.GetString("SEISMIC_ZIP"),
			SeismicDir:       v.GetString("SEISMIC_DIR"),
			SeismicZoneField: v.GetString("SEISMIC_ZONE_FIELD"),
			RasterBlockCache: v.GetInt("RASTER_BLOCK_CACHE"),
		},
		Assessment: AssessmentConfig{
			OffsetKm:          v.GetFloat64("ASSESSMENT_OFFSET_KM"),
			HospitalRadiusM:   v.GetInt("HOSPITAL_RADIUS_M"),
			TransportRadiusM:  v.GetInt("TRANSPORT_RADIUS_M"),
			ProtectionRadiusM: v.GetInt("PROTECTION_RADIUS_M"),
			ResultsCSVPath:    v.GetString("RESULTS_CSV_PATH"),
			ResultsXLSXPath:   v.GetString("RESULTS_XLSX_PATH"),
			ResultsGeoJSON:    v.GetString("RESULTS_GEOJSON_PATH"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DB_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			TTL:          time.Duration(v.GetInt("CACHE_TTL")) * time.Second,
			H3Resolution: v.GetInt("CACHE_H3_RESOLUTION"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			ClaimMinIdle:      time.Duration(v.GetInt("WORKER_CLAIM_MIN_IDLE")) * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, без которых оценка не имеет смысла
func (c *Config) Validate() error {
	if c.Assessment.OffsetKm <= 0 {
		return fmt.Errorf("ASSESSMENT_OFFSET_KM must be positive, got %v", c.Assessment.OffsetKm)
	}
	if c.Assessment.HospitalRadiusM <= 0 || c.Assessment.TransportRadiusM <= 0 || c.Assessment.ProtectionRadiusM <= 0 {
		return fmt.Errorf("search radii must be positive")
	}
	if c.Cache.H3Resolution < 0 || c.Cache.H3Resolution > 15 {
		return fmt.Errorf("CACHE_H3_RESOLUTION must be within 0..15, got %d", c.Cache.H3Resolution)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN - строка подключения в формате key=value для драйвера pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
