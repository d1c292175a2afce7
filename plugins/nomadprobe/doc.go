// Package nomadprobe checks a Nomad job through its allocation summary.
package nomadprobe
