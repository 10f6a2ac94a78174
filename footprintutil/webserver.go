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
	"fmt"
	"html/template"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// GUIAddress is the address the graphical interface is served at.
const GUIAddress = "localhost:7272"

// configValues returns the current value of every option.
func configValues() map[string]interface{} {
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	return config
}

// setConfigHandler loads the configuration file given in the "config"
// form value and responds with the resulting option values.
func setConfigHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	Root.PersistentFlags().Set("config", r.Form.Get("config"))
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(configValues()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const guiTemplate = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>footprint</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
	</style>
</head>
<body>
<div class="container">
	<h1>footprint</h1>
	<p>Choose a command and a raster or GeoJSON input below.</p>
	<div>
		{{.}}
	</div>
</div>

<script>
let allFlags = [...document.querySelectorAll('[data-name]')];
let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("change", e => {
	fetch("/setConfig?config=" + encodeURIComponent(configInput.value))
		.then(res => {
			if (res.status == 204) {
				configInput.classList.add("red-border");
				return;
			}
			res.json().then(data => {
				configInput.classList.remove("red-border");
				for (let f of allFlags) {
					if (!(f.dataset.name in data)) continue;
					let input = f.children[0];
					let v = JSON.stringify(data[f.dataset.name]).replace(/^"+|"+$/g, '');
					if (input.value != v) {
						input.value = v;
						input.classList.add("green-border");
					}
				}
			})
		})
		.catch(err => console.log("Error fetching /setConfig", err))
})
</script>
</body>
</html>`

// StartWebServer starts a graphical interface to the commands and opens
// it in a web browser.
func StartWebServer() {
	setConfig() // Errors are shown when a configuration file is chosen.

	http.HandleFunc("/setConfig", setConfigHandler)

	for _, cmd := range commands() {
		cmd.SilenceUsage = true
	}

	html := template.Must(template.New("").Parse(guiTemplate))
	server := gobra.Server{Root: Root, ServerAddress: GUIAddress, AllowCORS: false, HTML: html}
	logrus.Infof("starting server at http://%s", GUIAddress)
	if err := open.Run("http://" + GUIAddress); err != nil {
		fmt.Printf("If not opened automatically, please visit http://%s\n", GUIAddress)
	}
	server.Start()
}
