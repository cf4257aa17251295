package graphstate

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "graphstate")
