// Package dataset loads the household and the school bulletin board a
// deployment serves from a YAML file. A sample file is embedded for demos
// and local runs.
package dataset
