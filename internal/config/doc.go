// Package config provides configuration parsing for milweb.
//
// The configuration is stored in milweb.json in the working directory.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "url": "ws://localhost:7681",
//	  "clientName": "inspection-station-2",
//	  "fps": 10,
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "addr": ":9090"
//	  },
//	  "record": {
//	    "sink": "bolt",
//	    "path": "frames.db"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Server:", cfg.URL)
package config
