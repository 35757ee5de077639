package config

import (
	"log"
	"os"
)

type Config struct {
	Port      string
	APIURL    string
	UploadURL string
	Campaign  string
	BaseURL   string
	LogFile   string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	api := os.Getenv("API_URL")
	if api == "" {
		api = "http://localhost:3000"
	}
	upload := os.Getenv("UPLOAD_URL")
	if upload == "" {
		upload = api + "/upload.php"
	}
	campaign := os.Getenv("CAMPAIGN")
	if campaign == "" {
		campaign = "duenos-del-verano"
	}
	base := os.Getenv("BASE_URL")
	if base == "" {
		// Public URL printed on QR codes and copy links.
		base = "http://localhost:" + port
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./ruletapromo.log" // default log sink in project root
	}

	cfg := Config{Port: port, APIURL: api, UploadURL: upload, Campaign: campaign, BaseURL: base, LogFile: logFile}
	log.Printf("[config] PORT=%s API_URL=%s UPLOAD_URL=%s CAMPAIGN=%s BASE_URL=%s LOG_FILE=%s",
		cfg.Port, cfg.APIURL, cfg.UploadURL, cfg.Campaign, cfg.BaseURL, cfg.LogFile)
	return cfg
}
