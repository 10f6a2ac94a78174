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
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/go-cloud/blob"
	"github.com/spatialmodel/footprint/rastersrc"
	"github.com/spf13/cobra"
)

// writeOutput writes v as indented JSON to the location specified by the
// output option: standard output if it is empty or "-", a blob storage
// location, or a local file.
func writeOutput(ctx context.Context, cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("footprintutil: encoding output: %v", err)
	}
	b = append(b, '\n')

	path := expand(Cfg.GetString("output"))
	switch {
	case path == "" || path == "-":
		_, err = cmd.OutOrStdout().Write(b)
		return err
	case rastersrc.IsBlob(path):
		return upload(ctx, path, b)
	default:
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return fmt.Errorf("footprintutil: creating output directory: %v", err)
		}
		if err := ioutil.WriteFile(path, b, 0644); err != nil {
			return fmt.Errorf("footprintutil: writing output: %v", err)
		}
		return nil
	}
}

// upload writes b to the blob storage location href.
func upload(ctx context.Context, href string, b []byte) error {
	bucket, key, err := rastersrc.OpenBucket(ctx, href)
	if err != nil {
		return fmt.Errorf("footprintutil: opening bucket to upload '%s': %v", href, err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("footprintutil: opening writer to upload '%s': %v", href, err)
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return fmt.Errorf("footprintutil: uploading '%s': %v", href, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("footprintutil: uploading '%s': %v", href, err)
	}
	return nil
}
