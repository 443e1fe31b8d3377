// Package config loads the configuration of a stitch site.
//
// The configuration lives at the project root in stitch.json, stitch.yaml
// or stitch.hcl; the first one found wins. All three carry the same
// fields.
//
// # Configuration File Structure
//
//	{
//	  "product": "shop/2.1",
//	  "release": true,
//	  "templates": {
//	    "dir": "templates"
//	  },
//	  "server": {
//	    "addr": ":8080",
//	    "mode": "stream",
//	    "secureCookies": true,
//	    "trustedProxies": ["10.0.0.0/8"]
//	  },
//	  "live": {
//	    "enabled": true
//	  },
//	  "metrics": {
//	    "enabled": true
//	  }
//	}
//
// The same file in HCL:
//
//	product = "shop/2.1"
//	release = true
//
//	templates {
//	  s3 {
//	    bucket = "shop-templates"
//	    prefix = "site/"
//	  }
//	}
//
//	server {
//	  addr = ":8080"
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
