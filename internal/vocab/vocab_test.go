// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vocab

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

const sampleCSV = `DrugBank ID,Accession Numbers,Common name,CAS,UNII,Synonyms,Standard InChI Key
DB00331,BTD00011,Metformin,657-24-9,9100L32L2N,Dimethylbiguanide,XZWYZXLIPXDOLR-UHFFFAOYSA-N
DB00722,APRD00560,Lisinopril,83915-83-7,E7199S1YWR,Lisinoprilum,RLAWWYSOJDYHDC-BZSNNMDCSA-N
DB99999,X,,1-1-1,Z,orphan row without a name,KEY
`

func TestParseCSV(t *testing.T) {
	entries, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	want := []types.VocabEntry{
		{DrugBankID: "DB00331", CommonName: "Metformin"},
		{DrugBankID: "DB00722", CommonName: "Lisinopril"},
	}
	assert.Equal(t, want, entries, "synonym columns dropped, incomplete rows skipped")
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("DrugBank ID,Synonyms\nDB1,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Common name")
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("DrugBank ID,Common name\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}

func TestLoadPlainCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoadZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drugbank_all_drugbank_vocabulary.csv.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	member, err := zw.Create("drugbank vocabulary.csv")
	require.NoError(t, err)
	_, err = member.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DB00331", entries[0].DrugBankID)
}

func TestLoadZipWithoutCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	member, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = member.Write([]byte("nothing here"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CSV member")
}
