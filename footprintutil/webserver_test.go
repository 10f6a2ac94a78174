/*
Copyright © 2018 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package footprintutil

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestSetConfigHandler(t *testing.T) {
	resetFlags(t)
	cfgFile := writeFile(t, "config.json", `{"simplify": 0.5, "destination-crs": "EPSG:3857"}`)
	defer func() {
		// Unload the configuration for the other tests.
		if err := ioutil.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		Root.PersistentFlags().Set("config", cfgFile)
		if err := setConfig(); err != nil {
			t.Fatal(err)
		}
		resetFlags(t)
	}()

	srv := httptest.NewServer(http.HandlerFunc(setConfigHandler))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/setConfig?config=" + url.QueryEscape(cfgFile))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %s", resp.Status)
	}
	var config map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&config); err != nil {
		t.Fatal(err)
	}
	if v := config["simplify"]; v != 0.5 {
		t.Errorf("simplify: %v", v)
	}
	if v := config["destination-crs"]; v != "EPSG:3857" {
		t.Errorf("destination-crs: %v", v)
	}
	if _, ok := config["h3-resolution"]; !ok {
		t.Error("options are missing from the response")
	}

	c, err := PipelineConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.SimplifyTolerance != 0.5 || c.DestinationCRS != "EPSG:3857" {
		t.Errorf("configuration file wasn't applied: %+v", c)
	}

	bad, err := http.Get(srv.URL + "/setConfig?config=" + url.QueryEscape(cfgFile+".missing"))
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusNoContent {
		t.Errorf("missing file status: %s", bad.Status)
	}
}
